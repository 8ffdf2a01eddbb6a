package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/meido/pkg/mio/bot"
	"github.com/intrntsrfr/meido/pkg/mio/discord"
)

const pingReply = "pong"

type module struct {
	*bot.ModuleBase
	prefix string
}

func NewModule(b *bot.Bot, prefix string, logger mio.Logger) *module {
	logger = logger.Named("commands")
	return &module{
		ModuleBase: bot.NewModule(b, "commands", logger),
		prefix:     prefix,
	}
}

func (m *module) Hook() error {
	return m.RegisterCommands(
		newPingCommand(m),
	)
}

func newPingCommand(m *module) *bot.ModuleCommand {
	cmd := bot.NewModuleCommandBuilder(m, "ping").
		Triggers(trigger(m.prefix, "ping")).
		Description("Check that the bot is alive")

	run := func(msg *discord.DiscordMessage) {
		msg.Reply(pingReply)
	}

	return cmd.Execute(run).Build()
}

var commandNames = []string{"ping"}

func trigger(prefix, name string) string {
	return prefix + name
}

// isCommand reports whether m invokes one of the module's commands. Bots and webhooks cannot
// invoke commands.
func isCommand(prefix string, m *discordgo.Message) bool {
	if prefix == "" || m.Author == nil || m.Author.Bot || m.WebhookID != "" {
		return false
	}
	args := strings.Fields(m.Content)
	if len(args) == 0 {
		return false
	}
	for _, name := range commandNames {
		if args[0] == trigger(prefix, name) {
			return true
		}
	}
	return false
}
