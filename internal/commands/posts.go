package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/resource"
)

func (c *CLI) newPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "管理博客文章",
	}
	cmd.AddCommand(c.newPostsListCmd())
	cmd.AddCommand(c.newPostsGetCmd())
	cmd.AddCommand(c.newPostsCreateCmd())
	cmd.AddCommand(c.newPostsUpdateCmd())
	cmd.AddCommand(c.newPostsDeleteCmd())
	return cmd
}

func (c *CLI) newPostsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出文章",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			params := resource.PostListParams{}
			params.Skip, _ = cmd.Flags().GetInt("skip")
			params.Limit, _ = cmd.Flags().GetInt("limit")
			if params.Limit == 0 {
				params.Limit = c.app.cfg.PageSizeFor("posts")
			}
			status, _ := cmd.Flags().GetString("status")
			params.Status = api.PostStatus(status)
			params.Search, _ = cmd.Flags().GetString("search")
			params.Tag, _ = cmd.Flags().GetString("tag")
			params.Mine, _ = cmd.Flags().GetBool("mine")

			if params.Mine {
				if err := c.app.requireLogin(); err != nil {
					return err
				}
			}

			sub, ok := c.app.posts.List(params)
			if !ok {
				return fmt.Errorf("非法状态值: %q", status)
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
	cmd.Flags().Int("skip", 0, "跳过前 N 条")
	cmd.Flags().Int("limit", 0, "最多返回 N 条")
	cmd.Flags().String("status", "", "按状态过滤(published/draft/private)")
	cmd.Flags().String("search", "", "按关键词搜索标题与正文")
	cmd.Flags().String("tag", "", "按标签过滤")
	cmd.Flags().Bool("mine", false, "仅看自己的文章(需登录)")
	return cmd
}

func (c *CLI) newPostsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "查看单篇文章",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			sub, ok := c.app.posts.Get(id)
			if !ok {
				return fmt.Errorf("非法文章 id: %d", id)
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

func (c *CLI) newPostsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "发布新文章(需登录)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			if err := c.app.requireLogin(); err != nil {
				return err
			}
			payload := api.PostCreate{}
			payload.Title, _ = cmd.Flags().GetString("title")
			payload.Content, _ = cmd.Flags().GetString("content")
			if cmd.Flags().Changed("summary") {
				summary, _ := cmd.Flags().GetString("summary")
				payload.Summary = &summary
			}
			payload.Tags, _ = cmd.Flags().GetStringSlice("tags")
			if cmd.Flags().Changed("category") {
				category, _ := cmd.Flags().GetString("category")
				payload.Category = &category
			}
			status, _ := cmd.Flags().GetString("status")
			payload.Status = api.PostStatus(status)

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			post, err := c.app.posts.Create(ctx, payload)
			if err != nil {
				return err
			}
			return c.app.printJSON(post)
		},
	}
	cmd.Flags().String("title", "", "文章标题")
	cmd.Flags().String("content", "", "文章正文")
	cmd.Flags().String("summary", "", "文章摘要")
	cmd.Flags().StringSlice("tags", nil, "标签列表")
	cmd.Flags().String("category", "", "分类")
	cmd.Flags().String("status", "", "初始状态(缺省 draft)")
	return cmd
}

func (c *CLI) newPostsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "更新文章(仅作者)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			if err := c.app.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			payload := api.PostUpdate{}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				payload.Title = &title
			}
			if cmd.Flags().Changed("content") {
				content, _ := cmd.Flags().GetString("content")
				payload.Content = &content
			}
			if cmd.Flags().Changed("summary") {
				summary, _ := cmd.Flags().GetString("summary")
				payload.Summary = &summary
			}
			if cmd.Flags().Changed("tags") {
				payload.Tags, _ = cmd.Flags().GetStringSlice("tags")
			}
			if cmd.Flags().Changed("category") {
				category, _ := cmd.Flags().GetString("category")
				payload.Category = &category
			}
			if cmd.Flags().Changed("status") {
				status, _ := cmd.Flags().GetString("status")
				converted := api.PostStatus(status)
				payload.Status = &converted
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			post, err := c.app.posts.Update(ctx, id, payload)
			if err != nil {
				return err
			}
			return c.app.printJSON(post)
		},
	}
	cmd.Flags().String("title", "", "新标题")
	cmd.Flags().String("content", "", "新正文")
	cmd.Flags().String("summary", "", "新摘要")
	cmd.Flags().StringSlice("tags", nil, "新标签列表")
	cmd.Flags().String("category", "", "新分类")
	cmd.Flags().String("status", "", "新状态")
	return cmd
}

func (c *CLI) newPostsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "删除文章(仅作者)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.init(); err != nil {
				return err
			}
			if err := c.app.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := c.app.opCtx(cmd.Context())
			defer cancel()

			if err := c.app.posts.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(c.app.out, "文章 %d 已删除\n", id)
			return nil
		},
	}
}
