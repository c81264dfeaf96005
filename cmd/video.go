package cmd

import (
	"fmt"

	"github.com/researchaccelerator-hub/innertube-miner/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newVideoCommand(a *app) *cobra.Command {
	var idsFile string

	videoCmd := &cobra.Command{
		Use:   "video [videoId...]",
		Short: "Mine a watch page and its related videos",
		Long: `Fetch the watch page of each video, extract its details and collect related
videos across watch-next continuations. Video IDs may also be read from a file,
one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string{}, args...)
			if idsFile != "" {
				fromFile, err := common.ReadIDsFromFile(idsFile)
				if err != nil {
					return err
				}
				ids = append(ids, fromFile...)
			}
			if len(ids) == 0 {
				return fmt.Errorf("at least one video ID is required")
			}

			m, closeFn, err := a.newMiner(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var failed int
			for _, id := range ids {
				info, err := m.VideoInfo(cmd.Context(), id)
				if err != nil {
					log.Error().Err(err).Str("video_id", id).Msg("Failed to mine video")
					failed++
					continue
				}
				if err := a.emit(info); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d videos failed", failed, len(ids))
			}
			return nil
		},
	}

	videoCmd.Flags().StringVar(&idsFile, "ids-file", "", "File with one video ID per line")
	return videoCmd
}
