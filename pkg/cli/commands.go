package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/menu"
)

func (a *app) showCommand() *cobra.Command {
	var (
		flat     bool
		expanded []string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the forest, all rows, or the rows visible for an expansion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			f := w.store.Current()
			switch {
			case cmd.Flags().Changed("expanded"):
				return printJSON(cmd, f.Visible(menu.NewExpansion(expanded...)))
			case flat:
				return printJSON(cmd, f.Flatten())
			default:
				return printJSON(cmd, f)
			}
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "Print every node as a row with its level")
	cmd.Flags().StringSliceVar(&expanded, "expanded", nil, "Print the visible rows with these containers expanded")
	return cmd
}

func (a *app) addCommand() *cobra.Command {
	var form menu.FormValues
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a root-level node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := form.Validate(); err != nil {
				return err
			}

			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			n, err := w.editor.Add(cmd.Context(), form)
			if err != nil {
				return err
			}
			return printJSON(cmd, n)
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Display name (6-50 characters)")
	cmd.Flags().StringVar(&form.Link, "link", "", "Link target (10-50 characters)")
	cmd.Flags().BoolVar(&form.HasChildren, "children", false, "Create an empty container")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var name, link string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the name or link of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			n := w.store.Current().Find(args[0])
			if n == nil {
				return fmt.Errorf("edit %q: %w", args[0], menu.ErrNodeNotFound)
			}

			// unset flags keep the current value
			form := menu.FormFor(n)
			if cmd.Flags().Changed("name") {
				form.Name = name
			}
			if cmd.Flags().Changed("link") {
				form.Link = link
			}
			if err := form.Validate(); err != nil {
				return err
			}

			edited, err := w.editor.Edit(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			return printJSON(cmd, edited)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name (6-50 characters)")
	cmd.Flags().StringVar(&link, "link", "", "New link target (10-50 characters)")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.editor.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func (a *app) moveCommand() *cobra.Command {
	var (
		index    int
		expanded []string
		outside  bool
	)
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Drop a node onto a visible row, taking its place among that row's siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			ev := editor.DropEvent{
				NodeID:                 args[0],
				CurrentIndex:           index,
				IsPointerOverContainer: !outside,
			}
			res, err := w.editor.Move(cmd.Context(), ev, menu.NewExpansion(expanded...))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Visible row the node is dropped on")
	cmd.Flags().StringSliceVar(&expanded, "expanded", nil, "Containers expanded when the drop happened")
	cmd.Flags().BoolVar(&outside, "outside", false, "Drop outside the tree (no-op)")
	return cmd
}

func (a *app) queryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Evaluate a JSONPath expression against the forest, e.g. '$..name'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			res, err := w.store.Current().Query(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func (a *app) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the forest with the seed dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.editor.Reset(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd, w.store.Current())
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "menued %s (commit %s, built %s)\n",
				a.info.Version, a.info.Commit, a.info.Date)
			return err
		},
	}
}
