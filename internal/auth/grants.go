package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"connect-service/internal/models"
	"connect-service/internal/pubsub"
)

var ErrUnauthorized = errors.New("unauthorized")

// Grant is a signed channel authorization handed back to the client. The
// client presents Auth when subscribing; presence grants additionally carry
// the signed member data visible to other subscribers.
type Grant struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// PresenceData is the member payload embedded in presence grants.
type PresenceData struct {
	UserID   string          `json:"user_id"`
	UserInfo models.UserInfo `json:"user_info"`
}

// Authorizer issues and verifies channel grants with the fabric app
// credentials. The signature is HMAC-SHA256 over "socketID:channel" (plus
// ":channelData" for presence channels), hex encoded and prefixed by the app
// key.
type Authorizer struct {
	key    string
	secret []byte
}

// NewAuthorizer constructs an Authorizer from the app credentials.
func NewAuthorizer(key, secret string) *Authorizer {
	return &Authorizer{key: key, secret: []byte(secret)}
}

// Authorize validates that the session user may subscribe to the channel and
// issues a signed grant. It fails with ErrUnauthorized when there is no
// session or the session user does not match the claimed user id.
func (a *Authorizer) Authorize(socketID, channelName string, sessionUser *models.UserInfo, claimedUserID string) (Grant, error) {
	if sessionUser == nil || sessionUser.ID == "" {
		return Grant{}, ErrUnauthorized
	}
	if sessionUser.ID != claimedUserID {
		return Grant{}, ErrUnauthorized
	}

	kind := pubsub.ParseChannel(channelName)
	if kind == pubsub.KindUser {
		// Personal streams are only ever granted to their owner.
		if pubsub.UserIDFromChannel(channelName) != sessionUser.ID {
			return Grant{}, ErrUnauthorized
		}
	}

	if kind != pubsub.KindPresence {
		return Grant{Auth: a.key + ":" + a.sign(socketID+":"+channelName)}, nil
	}

	data, err := json.Marshal(PresenceData{UserID: sessionUser.ID, UserInfo: *sessionUser})
	if err != nil {
		return Grant{}, err
	}
	channelData := string(data)
	return Grant{
		Auth:        a.key + ":" + a.sign(socketID+":"+channelName+":"+channelData),
		ChannelData: channelData,
	}, nil
}

// Verify checks a grant presented at subscribe time. channelData must be
// empty for non-presence channels.
func (a *Authorizer) Verify(socketID, channelName, authString, channelData string) bool {
	signed := socketID + ":" + channelName
	if channelData != "" {
		signed += ":" + channelData
	}
	expected := a.key + ":" + a.sign(signed)
	return hmac.Equal([]byte(expected), []byte(authString))
}

func (a *Authorizer) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
