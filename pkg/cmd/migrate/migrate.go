package migrate

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racesim/pkg/config"
	"github.com/mpapenbr/racesim/pkg/db/migrate"
	"github.com/mpapenbr/racesim/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration of the result archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}
	return cmd
}

func startMigration() error {
	if config.DB == "" {
		return cmdutil.ErrDBURL
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if postgresAddr == "" {
		return cmdutil.ErrDBURL
	}
	start := time.Now()
	if err := utils.WaitForTCP(postgresAddr, cmdutil.WaitTimeout()); err != nil {
		log.Error("database not ready", log.ErrorField(err))
		return err
	}
	if err := migrate.MigrateDB(config.DB); err != nil {
		log.Error("Could not migrate database", log.ErrorField(err))
		return err
	}
	log.Debug("migration done", log.Duration("duration", time.Since(start)))
	return nil
}
