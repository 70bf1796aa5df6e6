package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fmac-task/internal/auth"
	"fmac-task/internal/bootstrap"
	"fmac-task/internal/config"
	"fmac-task/internal/handlers"
	"fmac-task/internal/models"
	"fmac-task/internal/routes"
	"fmac-task/internal/visibility"
	"fmac-task/internal/workspace"
)

// v carries defaults, FMAC_* env bindings and command flags.
var v *viper.Viper = config.New()

var rootCmd = &cobra.Command{
	Use:           "fmac-task",
	Short:         "Task and project server with per-user visibility",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver (sqlite, postgres, mysql)")
	rootCmd.PersistentFlags().String("database-url", "", "database DSN")
	_ = v.BindPFlag("db.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = v.BindPFlag("db.dsn", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(setRoleCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		stop()
		os.Exit(1)
	}
}

func loadApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(v, path)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg)
}

func runBootstrap(ctx context.Context, b *workspace.Backend) (bootstrap.Report, error) {
	return bootstrap.Run(ctx, bootstrap.Deps{Tasks: b.Tasks, Projects: b.Projects, Users: b.Users})
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if a.cfg.Bootstrap {
				report, err := runBootstrap(ctx, a.backend)
				if err != nil {
					log.Printf("bootstrap: %v (continuing)", err)
				}
				log.Printf("bootstrap: %s", report)
			}

			sessions := workspace.NewSessions(a.backend, a.cfg.Sessions.TTL)
			go sessions.RunSweeper(ctx, time.Minute)

			issuer := auth.NewIssuer(a.cfg.JWT.Secret, a.cfg.JWT.Issuer, a.cfg.JWT.Audience, a.cfg.JWT.TTL)
			h := handlers.New(sessions, a.backend.Users, issuer, a.hub)
			router := routes.SetupRoutes(routes.Deps{Handler: h, Issuer: issuer, Profiles: a.backend.Users})

			srv := &http.Server{Addr: a.cfg.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.Printf("Server starting on %s (store=%s, db=%s)", a.cfg.Addr, a.cfg.Store.Backend, a.cfg.DB.Driver)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			log.Println("Server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8008)")
	_ = v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Run the startup migration once and print what changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			report, err := runBootstrap(cmd.Context(), a.backend)
			fmt.Println(report)
			return err
		},
	}
}

func tasksCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks, optionally as a given user would see them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			tasks, err := a.backend.Tasks.List(ctx)
			if err != nil {
				return err
			}
			if as != "" {
				profile, err := a.backend.Users.Get(ctx, as)
				if err != nil {
					return err
				}
				tasks = visibility.VisibleTasks(tasks, profile.Actor())
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Project", "Assignees", "Updated"})
			for _, t := range tasks {
				tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Priority, t.ProjectID, len(t.Assignees), t.UpdatedAt})
			}
			tw.AppendFooter(table.Row{"", "", "", "", "", "Total", len(tasks)})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "user id whose visibility to apply")
	return cmd
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <admin|head|manager|member>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			p, err := a.backend.Users.SetRole(cmd.Context(), args[0], models.Role(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s) is now %s\n", p.Name, p.ID, p.Role)
			return nil
		},
	}
}
