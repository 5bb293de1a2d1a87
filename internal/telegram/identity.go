// Package telegram – identity mapping.
//
// The ledger's user accounts are created from the identity fields the
// platform attaches to every inbound update. This file maps the
// tgbotapi user object to the service-layer profile type so nothing
// outside this package imports the bot API for identity purposes.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avalle/go-store-backend/internal/services"
)

// ProfileFromUser converts a platform user object into the profile the
// ledger consumes. Nil input yields a zero profile; callers should have
// filtered channel posts and other userless updates already.
func ProfileFromUser(u *tgbotapi.User) services.Profile {
	if u == nil {
		return services.Profile{}
	}
	return services.Profile{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.UserName,
		LanguageCode: u.LanguageCode,
	}
}
