package serverselect

import (
	"fmt"
	"os"

	"github.com/gcopy-dev/gcopy/internal/cli/config"
	"github.com/manifoldco/promptui"
)

// Prompter asks the user to pick one of several servers
type Prompter func(servers []config.Server) (*config.Server, error)

// ResolveServer determines which server to use based on the following priority:
// 1. If the --server flag is provided, use it (a configured alias or any URL)
// 2. If GCOPY_SERVER is set, use that
// 3. If the user has a selected server in their config, use that
// 4. If only one server is configured, use it
// 5. If none is configured, use config.DefaultServer
// 6. Otherwise, prompt the user to select a server interactively
func ResolveServer(cfg *config.Config, flag string, prompt Prompter) (string, error) {
	if flag != "" {
		return lookup(cfg, flag), nil
	}

	if env := os.Getenv("GCOPY_SERVER"); env != "" {
		return lookup(cfg, env), nil
	}

	if cfg.Selected != "" {
		if server, err := cfg.GetServerByURLOrAlias(cfg.Selected); err == nil {
			return server.URL, nil
		}
	}

	switch len(cfg.Servers) {
	case 0:
		return config.DefaultServer, nil
	case 1:
		return cfg.Servers[0].URL, nil
	}

	if prompt == nil {
		prompt = PromptServerSelection
	}
	server, err := prompt(cfg.Servers)
	if err != nil {
		return "", err
	}
	cfg.Selected = server.URL
	return server.URL, nil
}

// lookup resolves an alias to its URL, treating anything else as a URL
func lookup(cfg *config.Config, urlOrAlias string) string {
	if server, err := cfg.GetServerByURLOrAlias(urlOrAlias); err == nil {
		return server.URL
	}
	return config.NormalizeURL(urlOrAlias)
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(servers []config.Server) (*config.Server, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers configured, run 'gcopy init <url>' first")
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(servers))
	for i := range servers {
		server := &servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}
