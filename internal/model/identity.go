package model

import "fmt"

// Identity is who performs a reaction or writes a comment: an authenticated user or
// an anonymous session, never both.
type Identity struct {
	UserID     uint
	Username   string
	IsStaff    bool
	SessionKey string
}

func AuthenticatedIdentity(userID uint, username string, isStaff bool) Identity {
	return Identity{UserID: userID, Username: username, IsStaff: isStaff}
}

func AnonymousIdentity(sessionKey string) Identity {
	return Identity{SessionKey: sessionKey}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

// Key is the stable owner key stored on reactions.
func (i Identity) Key() string {
	if i.IsAuthenticated() {
		return fmt.Sprintf("user:%d", i.UserID)
	}
	return "session:" + i.SessionKey
}

// DefaultNickname is used when a commenter leaves the nickname empty.
func (i Identity) DefaultNickname() string {
	if i.IsAuthenticated() {
		if i.Username != "" {
			return i.Username
		}
		return "User"
	}
	if len(i.SessionKey) >= 4 {
		return "Reader_" + i.SessionKey[len(i.SessionKey)-4:]
	}
	return AnonymousNickname
}

const AnonymousNickname = "Anonymous Reader"
