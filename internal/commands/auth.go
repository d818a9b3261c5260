package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/session"
)

func (c *CLI) newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "登录并持久化令牌",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			user, err := c.app.session.Login(ctx, api.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.app.out, "已登录: %s <%s>\n", user.DisplayName, user.Email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "登录邮箱")
	cmd.Flags().String("password", "", "登录口令")
	return cmd
}

func (c *CLI) newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "注册新账号并自动登录",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			displayName, _ := cmd.Flags().GetString("display-name")

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			user, err := c.app.session.Register(ctx, api.Registration{
				Email:       email,
				Password:    password,
				DisplayName: displayName,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.app.out, "已注册并登录: %s <%s>\n", user.DisplayName, user.Email)
			return nil
		},
	}
	cmd.Flags().String("email", "", "注册邮箱")
	cmd.Flags().String("password", "", "登录口令")
	cmd.Flags().String("display-name", "", "显示名称")
	return cmd
}

func (c *CLI) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "退出登录并清除本地令牌",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			c.app.session.Logout()
			fmt.Fprintln(c.app.out, "已退出登录")
			return nil
		},
	}
}

func (c *CLI) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "显示当前登录身份",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			user, err := c.app.session.Current(ctx)
			if err != nil {
				return err
			}
			if user == nil || c.app.store.Snapshot().State != session.StateAuthenticated {
				fmt.Fprintln(c.app.out, "未登录")
				return nil
			}
			return c.app.printJSON(user)
		},
	}
}
