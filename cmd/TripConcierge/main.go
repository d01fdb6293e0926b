package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every command shares one viper instance
// so flags, the environment and the optional config file resolve the same way.
func newRootCmd() *cobra.Command {
	v := newViper()
	var envFile, cfgFile string

	root := &cobra.Command{
		Use:   "TripConcierge",
		Short: "TripConcierge - conversational trip planning for course attendees",
		Long: `TripConcierge guides course attendees through choosing flights to Las Vegas,
a hotel near the venue and entertainment for their stay.

It serves an HTTP API, an interactive terminal chat, and SMS or WhatsApp
conversations when a messaging provider is configured.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFile(envFile)
			if err := readConfigFile(v, cfgFile); err != nil {
				return err
			}
			initializeLogger(v.GetString(keyLogLevel))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "path of a .env file to load before reading the environment")
	pf.StringVar(&cfgFile, "config", "", "optional config file (yaml, toml or json) with the same keys as the environment")
	pf.String("log-level", "info", "log level: debug, info, warn or error (overrides $LOG_LEVEL)")
	pf.String("state-dir", DefaultStateDir, "state directory for TripConcierge data (overrides $TRIPCONCIERGE_STATE_DIR)")
	pf.String("database-url", "", "course database: SQLite path or PostgreSQL DSN (overrides $DATABASE_URL)")
	pf.String("course-id", "", "course the trip is planned around (overrides $COURSE_ID)")
	pf.String("openai-api-key", "", "OpenAI API key (overrides $OPENAI_API_KEY)")
	pf.String("openai-model", "", "OpenAI chat model (overrides $OPENAI_MODEL)")
	pf.String("airport-lookup-url", "", "external airport identification endpoint (overrides $AIRPORT_LOOKUP_URL)")
	pf.Duration("thinking-delay", 0, "typing delay before each reply, e.g. 1500ms (overrides $THINKING_DELAY)")
	pf.Bool("honor-travel-dates", false, "use dates typed at the travel dates step (overrides $HONOR_TRAVEL_DATES)")

	bindFlag(v, root, keyLogLevel, "log-level")
	bindFlag(v, root, keyStateDir, "state-dir")
	bindFlag(v, root, keyDatabaseURL, "database-url")
	bindFlag(v, root, keyCourseID, "course-id")
	bindFlag(v, root, keyOpenAIKey, "openai-api-key")
	bindFlag(v, root, keyOpenAIModel, "openai-model")
	bindFlag(v, root, keyAirportLookupURL, "airport-lookup-url")
	bindFlag(v, root, keyThinkingDelay, "thinking-delay")
	bindFlag(v, root, keyHonorTravelDates, "honor-travel-dates")

	root.AddCommand(newServeCmd(v))
	root.AddCommand(newChatCmd(v))
	root.AddCommand(newResolveCmd(v))
	return root
}

