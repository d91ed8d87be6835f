package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"yojiquiz/game"
)

type ServeCmd struct {
	Addr           string        `help:"Address to listen on." default:":5000" env:"ADDR"`
	AllowedOrigins []string      `help:"Origins allowed to open sockets and call the API." env:"ALLOWED_ORIGINS" required:""`
	PostgresURL    string        `help:"Postgres connection string for the catalog and results." env:"POSTGRES_URL"`
	RedisURL       string        `help:"Redis URL for room snapshots. Snapshots stay in memory when empty." env:"REDIS_URL"`
	JWTKey         string        `help:"Key used to sign session tokens." env:"JWT_KEY" required:""`
	TokenAge       time.Duration `help:"Lifetime of session tokens." default:"24h" env:"SESSION_TOKEN_AGE"`
	Config         string        `help:"YAML file overriding the game settings." type:"existingfile" short:"c"`
}

type CLI struct {
	Debug  bool `help:"Whether to enable debug logging." env:"DEBUG"`
	Pretty bool `help:"Write human readable logs instead of JSON." env:"LOG_PRETTY"`

	Serve    ServeCmd `cmd:"" default:"withargs" help:"Start the quiz server."`
	Settings struct{} `cmd:"" help:"Write the default game settings to standard output."`
}

// Parse reads args and the environment. It returns the selected command.
func Parse(args []string) (CLI, string, error) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("yojiquiz"),
		kong.Description("a multiplayer yojijukugo quiz server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))
	if err != nil {
		return CLI{}, "", err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return CLI{}, "", err
	}
	return cli, ctx.Command(), nil
}

// LoadSettings overlays the YAML file at path on the default settings. An
// empty path yields the defaults.
func LoadSettings(path string) (game.Settings, error) {
	settings := game.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return game.Settings{}, err
	}
	return ParseSettings(data)
}

func ParseSettings(data []byte) (game.Settings, error) {
	settings := game.DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return game.Settings{}, fmt.Errorf("%w: %w", game.ErrInvalidSettings, err)
	}
	if err := settings.Validate(); err != nil {
		return game.Settings{}, err
	}
	return settings, nil
}

func WriteDefaultSettings(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(game.DefaultSettings()); err != nil {
		return err
	}
	return enc.Close()
}
