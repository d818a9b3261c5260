package commands

import (
	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/api"
)

func (c *CLI) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "管理个人资料",
	}
	cmd.AddCommand(c.newProfileShowCmd())
	cmd.AddCommand(c.newProfileUpdateCmd())
	return cmd
}

func (c *CLI) newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "查看当前用户资料(需登录)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			if err := c.app.requireLogin(); err != nil {
				return err
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			data, err := c.app.await(ctx, c.app.profile.Get())
			if err != nil {
				return err
			}
			return c.app.printJSON(data)
		},
	}
}

func (c *CLI) newProfileUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "更新当前用户资料(需登录)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			if err := c.app.requireLogin(); err != nil {
				return err
			}
			payload := api.ProfileUpdate{}
			if cmd.Flags().Changed("display-name") {
				name, _ := cmd.Flags().GetString("display-name")
				payload.DisplayName = &name
			}
			if cmd.Flags().Changed("bio") {
				bio, _ := cmd.Flags().GetString("bio")
				payload.Bio = &bio
			}
			if cmd.Flags().Changed("avatar-url") {
				avatar, _ := cmd.Flags().GetString("avatar-url")
				payload.AvatarURL = &avatar
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			user, err := c.app.profile.Update(ctx, payload)
			if err != nil {
				return err
			}
			return c.app.printJSON(user)
		},
	}
	cmd.Flags().String("display-name", "", "新显示名称")
	cmd.Flags().String("bio", "", "新个人简介")
	cmd.Flags().String("avatar-url", "", "新头像地址")
	return cmd
}
