package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// GatewayURLKey is the base url of the bitaps payment gateway API
	GatewayURLKey = "GATEWAY_URL"
	// CurrencyKey is the active currency code addresses are issued for
	CurrencyKey = "CURRENCY"
	// CallbackLinkKey is the endpoint the gateway notifies about address transactions. When empty, the daemon advertises its own callback route
	CallbackLinkKey = "CALLBACK_LINK"
	// CallbackListenAddrKey is the host:port the callback HTTP interface listens on
	CallbackListenAddrKey = "CALLBACK_LISTEN_ADDR"
	// DatadirKey is the local data directory to store the internal state of the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DefaultConfirmationsKey is the confirmation threshold used when a create address request does not specify one
	DefaultConfirmationsKey = "DEFAULT_CONFIRMATIONS"

	// DbLocation ...
	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("forwardd", false)

// InitConfig loads the env config and prepares the data directory.
func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("FORWARDD")
	vip.AutomaticEnv()

	vip.SetDefault(GatewayURLKey, "https://api.bitaps.com/btc/v1")
	vip.SetDefault(CurrencyKey, "BTC")
	vip.SetDefault(CallbackLinkKey, "")
	vip.SetDefault(CallbackListenAddrKey, ":7777")
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DefaultConfirmationsKey, 3)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDbDir returns the directory the badger stores live in.
func GetDbDir() string {
	return filepath.Join(vip.GetString(DatadirKey), DbLocation)
}

// GetCurrencies returns the supported currency table, code to internal id.
// The table is intentionally static config: currency identifiers must stay
// stable across restarts since they are persisted on addresses.
func GetCurrencies() map[string]int {
	currencies := vip.GetStringMap("CURRENCIES")
	if len(currencies) == 0 {
		return map[string]int{"btc": 1}
	}

	table := make(map[string]int, len(currencies))
	for code, id := range currencies {
		switch v := id.(type) {
		case int:
			table[code] = v
		case float64:
			table[code] = int(v)
		}
	}
	return table
}

func validate() error {
	if _, err := url.ParseRequestURI(GetString(GatewayURLKey)); err != nil {
		return fmt.Errorf("gateway url is not valid: %s", err)
	}
	if link := GetString(CallbackLinkKey); len(link) > 0 {
		if _, err := url.ParseRequestURI(link); err != nil {
			return fmt.Errorf("callback link is not valid: %s", err)
		}
	}
	if GetInt(DefaultConfirmationsKey) < 1 {
		return fmt.Errorf("default confirmations must be at least 1")
	}
	return nil
}

func initDatadir() error {
	return os.MkdirAll(GetDbDir(), os.ModeDir|0755)
}
