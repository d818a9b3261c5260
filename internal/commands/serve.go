package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/devserver"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动内存态开发后端",
		Long:  "启动覆盖全部客户端接口的内存后端,数据进程内存活,重启即清空。",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			port, _ := cmd.Flags().GetInt("port")
			if port == 0 {
				port = c.app.cfg.Global.ServePort
			}

			srv, err := devserver.New(devserver.Options{Logger: c.app.logger})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), fmt.Sprintf(":%d", port))
		},
	}
	cmd.Flags().Int("port", 0, "监听端口(默认取配置 ServePort)")
	return cmd
}
