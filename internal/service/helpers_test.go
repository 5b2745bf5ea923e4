package service

import "github.com/fitlgui/Api-OurThree/internal/model"

func storedUser(username, hash string) model.User {
	return model.User{Username: username, Email: username + "@x.com", PasswordHash: hash}
}
