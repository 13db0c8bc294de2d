package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Internmain07/I-INTERN/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive internships whose deadline has passed",
	RunE:  runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().Int("expiring", 0, "also list internships closing within this many days")
	archiveCmd.Flags().String("lock", "", "lock file path, ARCHIVE_LOCK_FILE by default")
}

func runArchive(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, cfg, log, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	lockPath, _ := cmd.Flags().GetString("lock")
	if lockPath == "" {
		lockPath = cfg.ArchiveLockFile
	}

	a := archive.New(db.DB, log)
	n, err := a.RunLocked(ctx, lockPath)
	if errors.Is(err, archive.ErrLocked) {
		fmt.Println("Another archive run holds the lock, skipping.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Archived %d internship(s).\n", n)

	days, _ := cmd.Flags().GetInt("expiring")
	if days <= 0 {
		return nil
	}
	expiring, err := a.ExpiringSoon(ctx, days)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEADLINE\tID\tTITLE")
	for _, i := range expiring {
		fmt.Fprintf(w, "%s\t%s\t%s\n", i.Deadline.Format("2006-01-02"), i.ID, i.Title)
	}
	return w.Flush()
}
