package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/models"
)

var errOffline = errors.New("not available with --offline")

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in as the admin and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Sources: cli.EnvVars("FOLIO_USERNAME"), Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Sources: cli.EnvVars("FOLIO_PASSWORD"), Required: true},
		},
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			if ws.Client == nil {
				return errOffline
			}
			if err := ws.Client.Login(ctx, cmd.String("username"), cmd.String("password")); err != nil {
				return err
			}
			fmt.Println("Login successful")
			return nil
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session token",
		Action: withWorkspace(func(_ context.Context, _ *cli.Command, ws *internal.Workspace) error {
			return ws.Dashboard.Logout()
		}),
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check the stored session with the server",
		Action: withWorkspace(func(ctx context.Context, _ *cli.Command, ws *internal.Workspace) error {
			if ws.Client == nil {
				return errOffline
			}
			user, err := ws.Client.Verify(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", user)
			return nil
		}),
	}
}

func sectionArg(cmd *cli.Command, i int) (models.Section, error) {
	name := cmd.Args().Get(i)
	if name == "" {
		return "", fmt.Errorf("section is required (one of %s)", sectionNames())
	}
	return models.ParseSection(name)
}

func sectionNames() string {
	names := make([]string, len(models.AllSections))
	for i, s := range models.AllSections {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one section, or the whole portfolio, as YAML",
		ArgsUsage: "[section]",
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			if _, err := ws.Dashboard.Open(ctx); err != nil {
				return err
			}
			if cmd.Args().Len() > 0 {
				sec, err := sectionArg(cmd, 0)
				if err != nil {
					return err
				}
				return printYAML(ws.Dashboard.Editor(sec).View())
			}
			views := make([]editor.View, 0, len(models.AllSections))
			for _, sec := range models.AllSections {
				views = append(views, ws.Dashboard.Editor(sec).View())
			}
			return printYAML(views)
		}),
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set fields of the personal or social section and save it",
		ArgsUsage: "<section> <field=value>...",
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			sec, err := sectionArg(cmd, 0)
			if err != nil {
				return err
			}
			pairs, err := parsePairs(cmd.Args().Tail())
			if err != nil {
				return err
			}
			if _, err := ws.Dashboard.Open(ctx); err != nil {
				return err
			}
			ed := ws.Dashboard.Editor(sec)
			for _, p := range pairs {
				if err := ed.Set(p[0], p[1]); err != nil {
					return err
				}
			}
			if err := ed.Save(ctx); err != nil {
				return err
			}
			return printYAML(ed.View())
		}),
	}
}

var responsibilityFlag = &cli.StringSliceFlag{
	Name:  "responsibility",
	Usage: "Experience responsibility; repeat for each line",
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add an item to a list section and save it",
		ArgsUsage: "<section> [field=value]...",
		Flags:     []cli.Flag{responsibilityFlag},
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			sec, err := sectionArg(cmd, 0)
			if err != nil {
				return err
			}
			pairs, err := parsePairs(cmd.Args().Tail())
			if err != nil {
				return err
			}
			if _, err := ws.Dashboard.Open(ctx); err != nil {
				return err
			}
			ed := ws.Dashboard.Editor(sec)
			id, err := ed.Add()
			if err != nil {
				return err
			}
			return editAndSave(ctx, cmd, ed, id, pairs)
		}),
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change fields of a list item and save the section",
		ArgsUsage: "<section> <id> <field=value>...",
		Flags:     []cli.Flag{responsibilityFlag},
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			sec, err := sectionArg(cmd, 0)
			if err != nil {
				return err
			}
			id := cmd.Args().Get(1)
			if id == "" {
				return errors.New("item id is required")
			}
			pairs, err := parsePairs(cmd.Args().Slice()[2:])
			if err != nil {
				return err
			}
			if _, err := ws.Dashboard.Open(ctx); err != nil {
				return err
			}
			return editAndSave(ctx, cmd, ws.Dashboard.Editor(sec), id, pairs)
		}),
	}
}

func editAndSave(ctx context.Context, cmd *cli.Command, ed *editor.Editor, id string, pairs [][2]string) error {
	for _, p := range pairs {
		if err := ed.SetItem(id, p[0], p[1]); err != nil {
			return err
		}
	}
	if lines := cmd.StringSlice("responsibility"); len(lines) > 0 {
		if err := ed.SetResponsibilities(id, lines); err != nil {
			return err
		}
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}
	return printYAML(ed.View())
}

func parsePairs(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", a)
		}
		out = append(out, [2]string{k, v})
	}
	return out, nil
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a list item",
		ArgsUsage: "<section> <id>",
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			sec, err := sectionArg(cmd, 0)
			if err != nil {
				return err
			}
			id := cmd.Args().Get(1)
			if id == "" {
				return errors.New("item id is required")
			}
			if _, err := ws.Dashboard.Open(ctx); err != nil {
				return err
			}
			if err := ws.Dashboard.Editor(sec).Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("deleted: %s\n", id)
			return nil
		}),
	}
}

func uploadCommand() *cli.Command {
	flags := make([]cli.Flag, 0, len(models.AllDocTypes))
	for _, t := range models.AllDocTypes {
		flags = append(flags, &cli.StringFlag{Name: string(t), Usage: "Path to the " + t.ContentType() + " file"})
	}
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload one or more documents",
		Flags: flags,
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			var set models.UploadSet
			for _, t := range models.AllDocTypes {
				path := cmd.String(string(t))
				if path == "" {
					continue
				}
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				set.Set(t, &models.UploadFile{Filename: filepath.Base(path), Content: f})
			}
			if _, err := ws.Dashboard.Open(ctx); err != nil {
				return err
			}
			ed := ws.Dashboard.Editor(models.SectionDocuments)
			if err := ed.Upload(ctx, set); err != nil {
				return err
			}
			return printYAML(ed.View())
		}),
	}
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download a document; writes to stdout unless --out is given",
		ArgsUsage: "<resume-pdf|resume-docx|cover-letter-pdf|cover-letter-docx>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file"},
		},
		Action: withWorkspace(func(ctx context.Context, cmd *cli.Command, ws *internal.Workspace) error {
			t, err := models.ParseDocType(cmd.Args().First())
			if err != nil {
				return err
			}
			var w io.Writer = os.Stdout
			if out := cmd.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			_, err = ws.Dashboard.Editor(models.SectionDocuments).Download(ctx, t, w)
			return err
		}),
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the section editors as MCP tools on stdin/stdout",
		Action: withWorkspace(func(_ context.Context, _ *cli.Command, ws *internal.Workspace) error {
			return mcpserver.New(ws.Dashboard, version).ServeStdio()
		}),
	}
}

func devserverCommand() *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "Serve the portfolio REST API from memory for local development",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides devserver.http.port)"},
			&cli.StringFlag{Name: "admin-username", Sources: cli.EnvVars("FOLIO_ADMIN_USERNAME")},
			&cli.StringFlag{Name: "admin-password", Sources: cli.EnvVars("FOLIO_ADMIN_PASSWORD")},
			&cli.StringFlag{Name: "jwt-secret", Sources: cli.EnvVars("FOLIO_JWT_SECRET")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dc := &cfg.DevServer
			if p := cmd.Int("port"); p != 0 {
				dc.HTTP.Port = int(p)
			}
			if v := cmd.String("admin-username"); v != "" {
				dc.Admin.Username = v
			}
			if v := cmd.String("admin-password"); v != "" {
				dc.Admin.Password = v
			}
			if v := cmd.String("jwt-secret"); v != "" {
				dc.JWTSecret = v
			}
			if err := internal.RunDevServer(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}
