// Package commands 实现 blogctl 的 CLI 命令树。
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/version"
)

// CLI 持有根命令与共享运行时。
type CLI struct {
	app     *App
	rootCmd *cobra.Command
}

// New 构建完整的命令树。out/errOut 用于测试注入,生产传入 os.Stdout/os.Stderr。
func New(out, errOut io.Writer) *CLI {
	app := newApp(out, errOut)

	rootCmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "带本地查询缓存的博客 API 客户端",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Full(),
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().String("config", "", "配置文件路径(默认 ./config.toml,可被 BLOGCTL_CONFIG 覆盖)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = os.Getenv("BLOGCTL_CONFIG")
		}
		app.configPath = path
	}

	c := &CLI{app: app, rootCmd: rootCmd}

	rootCmd.AddCommand(c.newVersionCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newResourcesCmd())
	rootCmd.AddCommand(c.newLoginCmd())
	rootCmd.AddCommand(c.newRegisterCmd())
	rootCmd.AddCommand(c.newLogoutCmd())
	rootCmd.AddCommand(c.newWhoamiCmd())
	rootCmd.AddCommand(c.newItemsCmd())
	rootCmd.AddCommand(c.newPostsCmd())
	rootCmd.AddCommand(c.newProfileCmd())

	return c
}

// Execute 运行根命令。
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs 设置命令行参数,供测试使用。
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
