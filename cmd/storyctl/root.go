// cmd/storyctl/root.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/app"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

// cli 保存全局标志和加载后的配置
type cli struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "storyctl",
		Short: "Manage the character library and compose storyboard prompts",
		Long: `storyctl works directly against the configured character store.

Use it to run database migrations, manage characters and generate
storyboard prompts without starting the web server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML config file (default: $CONFIG_FILE or narrative.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newMigrateCmd(c),
		newCharactersCmd(c),
		newGenerateCmd(c),
		newTokenCmd(c),
	)
	return root
}

func (c *cli) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFrom(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	c.cfg = cfg

	logger := utils.GetLogger()
	if c.verbose {
		logger.SetLogLevel(utils.DEBUG)
	} else {
		// 命令行输出只保留错误日志
		logger.SetLogLevel(utils.ERROR)
	}
	return nil
}

// openCharacters 打开存储并创建角色服务，调用方负责关闭存储
func (c *cli) openCharacters(ctx context.Context) (*services.CharacterService, storage.CharacterStore, error) {
	store, err := app.OpenStore(ctx, c.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return services.NewCharacterService(store, nil), store, nil
}
