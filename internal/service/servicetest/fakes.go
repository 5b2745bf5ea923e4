// Package servicetest provides in-memory stores and recorders for tests of
// the service and handler layers.
package servicetest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/fitlgui/Api-OurThree/internal/model"
	"github.com/fitlgui/Api-OurThree/internal/queue"
	"github.com/fitlgui/Api-OurThree/internal/repository"
)

// Users is an in-memory UserStore enforcing unique username and email.
// Setting Err makes every call fail with it.
type Users struct {
	mu     sync.Mutex
	byName map[string]model.User
	Calls  int
	Err    error
}

func NewUsers() *Users { return &Users{byName: map[string]model.User{}} }

func (u *Users) ExistsByUsername(_ context.Context, username string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return false, u.Err
	}
	_, ok := u.byName[username]
	return ok, nil
}

func (u *Users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return false, u.Err
	}
	for _, x := range u.byName {
		if x.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (u *Users) Create(_ context.Context, in model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return u.Err
	}
	for _, x := range u.byName {
		if x.Username == in.Username || x.Email == in.Email {
			return repository.ErrDuplicate
		}
	}
	in.ID = bson.NewObjectID()
	u.byName[in.Username] = in
	return nil
}

func (u *Users) GetByUsername(_ context.Context, username string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return model.User{}, u.Err
	}
	x, ok := u.byName[username]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return x, nil
}

// Put stores a user directly, bypassing the uniqueness checks.
func (u *Users) Put(in model.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.byName[in.Username] = in
}

// Len returns the number of stored users.
func (u *Users) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.byName)
}

// Horta is an in-memory HortaStore holding the singleton document.
type Horta struct {
	mu    sync.Mutex
	doc   bson.M
	Calls int
	Err   error
}

func NewHorta() *Horta { return &Horta{} }

func (h *Horta) Get(context.Context) (bson.Raw, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls++
	if h.Err != nil {
		return nil, h.Err
	}
	if h.doc == nil {
		return nil, nil
	}
	return bson.Marshal(h.doc)
}

func (h *Horta) SetPump(_ context.Context, on bool) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls++
	if h.Err != nil {
		return false, h.Err
	}
	h.ensure()
	h.doc[model.FieldIsPumpOn] = on
	return on, nil
}

func (h *Horta) MergeReadings(_ context.Context, r model.SensorReadings) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls++
	if h.Err != nil {
		return h.Err
	}
	h.ensure()
	for k, v := range r.Sanitized() {
		h.doc[k] = v
	}
	return nil
}

func (h *Horta) ensure() {
	if h.doc == nil {
		h.doc = bson.M{model.FieldID: model.HortaID}
	}
}

// PumpOn returns the stored flag and whether the document exists.
func (h *Horta) PumpOn() (on, exists bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.doc == nil {
		return false, false
	}
	v, _ := h.doc[model.FieldIsPumpOn].(bool)
	return v, true
}

// Events records published events.
type Events struct {
	mu     sync.Mutex
	Events []queue.Event
	Err    error
}

func (e *Events) Publish(_ context.Context, ev queue.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Events = append(e.Events, ev)
	return nil
}

// Keys returns the routing keys in publish order.
func (e *Events) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.Events))
	for _, ev := range e.Events {
		out = append(out, ev.RoutingKey())
	}
	return out
}

// Notifier records pump notifications.
type Notifier struct {
	mu     sync.Mutex
	States []bool
	Err    error
}

func (n *Notifier) PumpChanged(_ context.Context, on bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.States = append(n.States, on)
	return n.Err
}
