package util

import (
	"io"
	"strings"

	"github.com/ValentinKolb/crusher/lib/broker"
	"github.com/ValentinKolb/crusher/lib/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupBrokerFlags adds the flags needed to open a broker to a command
func SetupBrokerFlags(cmd *cobra.Command, defaultName string) {
	key := "name"
	cmd.PersistentFlags().String(key, defaultName, WrapString("Name of the snapshot. The files <name>-db.dat and <name>-db.txt are derived from it with the extension stripped"))

	key = "seed"
	cmd.PersistentFlags().Uint64(key, 0, WrapString("Seed of the random source. 0 picks a random seed, any other value makes the run reproducible"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("crusher")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetBrokerConfig reads the broker configuration from viper
func GetBrokerConfig() *common.BrokerConfig {
	return &common.BrokerConfig{
		Name:          viper.GetString("name"),
		Seed:          viper.GetUint64("seed"),
		HandleSignals: true,
		LogLevel:      viper.GetString("log-level"),
	}
}

// OpenBroker initializes the loggers and creates the broker described by
// conf. The farewell message of the broker goes to out.
func OpenBroker(conf *common.BrokerConfig, out io.Writer) (*broker.Broker, error) {
	if err := common.InitLoggers(conf.LogLevel); err != nil {
		return nil, err
	}

	opts := broker.DefaultOptions()
	opts.Seed = conf.Seed
	opts.HandleSignals = conf.HandleSignals
	opts.Out = out

	return broker.New(conf.Name, opts)
}
