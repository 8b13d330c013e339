package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "skybot"

// BotTokenAccount is the keychain account holding the Telegram bot token.
const BotTokenAccount = "bot_token"

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	return keyring.Set(serviceName, account, value)
}

// IsNotFound reports whether err means the account has no stored secret.
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrNotFound)
}
