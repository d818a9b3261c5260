package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/resource"
)

func (c *CLI) newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "管理条目",
	}
	cmd.AddCommand(c.newItemsListCmd())
	cmd.AddCommand(c.newItemsGetCmd())
	cmd.AddCommand(c.newItemsCountCmd())
	cmd.AddCommand(c.newItemsCreateCmd())
	cmd.AddCommand(c.newItemsUpdateCmd())
	cmd.AddCommand(c.newItemsDeleteCmd())
	return cmd
}

func (c *CLI) newItemsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出条目",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			params := resource.ItemListParams{}
			params.Skip, _ = cmd.Flags().GetInt("skip")
			params.Limit, _ = cmd.Flags().GetInt("limit")
			if params.Limit == 0 {
				params.Limit = c.app.cfg.PageSizeFor("items")
			}
			if cmd.Flags().Changed("active-only") {
				active, _ := cmd.Flags().GetBool("active-only")
				params.ActiveOnly = &active
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			data, err := c.app.await(ctx, c.app.items.List(params))
			if err != nil {
				return err
			}
			return c.app.printJSON(data)
		},
	}
	cmd.Flags().Int("skip", 0, "跳过前 N 条")
	cmd.Flags().Int("limit", 0, "最多返回 N 条")
	cmd.Flags().Bool("active-only", false, "仅返回活跃条目")
	return cmd
}

func (c *CLI) newItemsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "查看单个条目",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			sub, ok := c.app.items.Get(id)
			if !ok {
				return fmt.Errorf("非法条目 id: %d", id)
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			data, err := c.app.await(ctx, sub)
			if err != nil {
				return err
			}
			return c.app.printJSON(data)
		},
	}
}

func (c *CLI) newItemsCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "统计条目数量",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			var activeOnly *bool
			if cmd.Flags().Changed("active-only") {
				active, _ := cmd.Flags().GetBool("active-only")
				activeOnly = &active
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			data, err := c.app.await(ctx, c.app.items.Count(activeOnly))
			if err != nil {
				return err
			}
			return c.app.printJSON(data)
		},
	}
	cmd.Flags().Bool("active-only", false, "仅统计活跃条目")
	return cmd
}

func (c *CLI) newItemsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "创建条目",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			payload := api.ItemCreate{}
			payload.Title, _ = cmd.Flags().GetString("title")
			if cmd.Flags().Changed("description") {
				desc, _ := cmd.Flags().GetString("description")
				payload.Description = &desc
			}
			if cmd.Flags().Changed("inactive") {
				active := false
				payload.IsActive = &active
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			item, err := c.app.items.Create(ctx, payload)
			if err != nil {
				return err
			}
			return c.app.printJSON(item)
		},
	}
	cmd.Flags().String("title", "", "条目标题")
	cmd.Flags().String("description", "", "条目描述")
	cmd.Flags().Bool("inactive", false, "创建为非活跃状态")
	return cmd
}

func (c *CLI) newItemsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "更新条目",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			payload := api.ItemUpdate{}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				payload.Title = &title
			}
			if cmd.Flags().Changed("description") {
				desc, _ := cmd.Flags().GetString("description")
				payload.Description = &desc
			}
			if cmd.Flags().Changed("active") {
				active, _ := cmd.Flags().GetBool("active")
				payload.IsActive = &active
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			item, err := c.app.items.Update(ctx, id, payload)
			if err != nil {
				return err
			}
			return c.app.printJSON(item)
		},
	}
	cmd.Flags().String("title", "", "新标题")
	cmd.Flags().String("description", "", "新描述")
	cmd.Flags().Bool("active", true, "设置活跃状态")
	return cmd
}

func (c *CLI) newItemsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "删除条目",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			if err := c.app.items.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(c.app.out, "条目 %d 已删除\n", id)
			return nil
		},
	}
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("非法 id: %q", raw)
	}
	return id, nil
}
