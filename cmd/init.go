package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/graphdesk/newsgraph/internal/config"
)

var initForce bool

const configHeader = `# newsgraph configuration.
# Every value can be overridden by environment variables with the NEWSGRAPH_
# prefix, e.g. NEWSGRAPH_ANTHROPIC_KEY, NEWSGRAPH_STORE_DRIVER.
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	// The root PersistentPreRunE wants a loadable config; init must work
	// before one exists.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !initForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", path)
		}

		v := viper.New()
		config.SetDefaults(v)

		var c config.Config
		if err := v.Unmarshal(&c); err != nil {
			return eris.Wrap(err, "init: defaults")
		}

		c.Feeds = []config.FeedConfig{
			{Name: "example-wire", URL: "https://example.com/rss", Tier: 1, Signal: "primary"},
			{Name: "example-blog", URL: "https://blog.example.com/feed", Tier: 2, Signal: "commentary"},
		}

		data, err := yaml.Marshal(&c)
		if err != nil {
			return eris.Wrap(err, "init: marshal")
		}

		out := append([]byte(configHeader), data...)
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return eris.Wrapf(err, "init: write %s", path)
		}

		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
