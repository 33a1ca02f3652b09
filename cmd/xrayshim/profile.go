package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"xrayshim/internal/config"
	"xrayshim/internal/db"
	"xrayshim/internal/geoip"
	"xrayshim/internal/logger"
	"xrayshim/internal/model"
	"xrayshim/internal/xray"
	"xrayshim/internal/xray/parser"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var profileNoGeo bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved share-links",
}

var profileAddCmd = &cobra.Command{
	Use:   "add <uri>...",
	Short: "Save one or more share-links",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var links []xray.ExtractedLink
		for _, arg := range args {
			raw := parser.CleanLink(arg)
			link, err := parser.Parse(raw)
			if err != nil {
				logger.Log.Warnf("Skipping link: %v", err)
				continue
			}
			links = append(links, xray.ExtractedLink{Raw: raw, Link: link})
		}
		withProfileDB(func(cfg *config.Config, database *gorm.DB) {
			saveLinks(cfg, database, links)
		})
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Save every decodable vmess/vless link found in a text file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			logger.Log.Fatalf("Failed to read %s: %v", args[0], err)
		}

		links := xray.ExtractLinks(string(data))
		logger.Log.Infof("Found %d links", len(links))
		withProfileDB(func(cfg *config.Config, database *gorm.DB) {
			saveLinks(cfg, database, links)
		})
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Run: func(cmd *cobra.Command, args []string) {
		withProfileDB(func(cfg *config.Config, database *gorm.DB) {
			profiles, err := db.ListProfiles(database)
			if err != nil {
				logger.Log.Fatalf("Failed to list profiles: %v", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTIVE\tPROTOCOL\tADDRESS\tCOUNTRY\tISP\tREMARK")
			for _, p := range profiles {
				active := ""
				if p.Active {
					active = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s:%d\t%s\t%s\t%s\n", p.ID, active, p.Protocol, p.Address, p.Port, p.Country, p.ISP, p.Remark)
			}
			w.Flush()
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved profile's share-link",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProfileID(args[0])
		withProfileDB(func(cfg *config.Config, database *gorm.DB) {
			p, err := db.GetProfile(database, id)
			if err != nil {
				logger.Log.Fatalf("Profile %d: %v", id, err)
			}
			fmt.Println(p.Raw)
		})
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProfileID(args[0])
		withProfileDB(func(cfg *config.Config, database *gorm.DB) {
			if err := db.DeleteProfile(database, id); err != nil {
				logger.Log.Fatalf("Profile %d: %v", id, err)
			}
			logger.Log.Infof("Removed profile %d", id)
		})
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Mark a profile active so `run` picks it by default",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProfileID(args[0])
		withProfileDB(func(cfg *config.Config, database *gorm.DB) {
			if err := db.SetActive(database, id); err != nil {
				logger.Log.Fatalf("Profile %d: %v", id, err)
			}
			logger.Log.Infof("Profile %d is now active", id)
		})
	},
}

func withProfileDB(fn func(cfg *config.Config, database *gorm.DB)) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		logger.Log.Fatalf("Error loading config: %v", err)
	}

	database, err := db.Connect(cfg.Database.Path)
	if err != nil {
		logger.Log.Fatalf("Error connecting to DB: %v", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		logger.Log.Fatalf("Migration failed: %v", err)
	}
	fn(cfg, database)
}

func saveLinks(cfg *config.Config, database *gorm.DB, links []xray.ExtractedLink) {
	useGeo := false
	if !profileNoGeo {
		if err := geoip.Init(cfg.GeoIP.ASNPath, cfg.GeoIP.CountryPath); err != nil {
			logger.Log.Warnf("GeoIP disabled: %v", err)
		} else {
			useGeo = true
			defer geoip.Close()
		}
	}

	var batch []model.Profile
	for _, found := range links {
		p := db.NewProfile(found.Raw, found.Link)
		if useGeo {
			if geo, err := geoip.LookupHost(p.Address); err == nil {
				p.Country = geo.Country
				p.ISP = geo.ISP
			} else {
				logger.Log.Debugf("GeoIP lookup for %s failed: %v", p.Address, err)
			}
		}
		batch = append(batch, p)
	}

	created, err := db.SaveProfiles(database, batch)
	if err != nil {
		logger.Log.Fatalf("Failed to save profiles: %v", err)
	}
	logger.Log.Infof("✅ Saved %d new profiles (%d duplicates skipped)", created, int64(len(batch))-created)
}

func parseProfileID(s string) uint {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		logger.Log.Fatalf("Invalid profile id %q", s)
	}
	return uint(id)
}

func init() {
	profileAddCmd.Flags().BoolVar(&profileNoGeo, "no-geoip", false, "Skip country/ISP annotation")
	profileImportCmd.Flags().BoolVar(&profileNoGeo, "no-geoip", false, "Skip country/ISP annotation")

	profileCmd.AddCommand(profileAddCmd, profileImportCmd, profileListCmd, profileShowCmd, profileRemoveCmd, profileUseCmd)
	rootCmd.AddCommand(profileCmd)
}
