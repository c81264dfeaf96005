package cmd

import (
	"github.com/spf13/cobra"
)

func newPlaylistCommand(a *app) *cobra.Command {
	var videoID string

	playlistCmd := &cobra.Command{
		Use:   "playlist <listId>",
		Short: "Mine the items of a playlist or mix",
		Long: `Collect the items of a playlist. Regular playlists are browsed and their
continuations followed; mixes (RD...) are read from the watch page of --video, or of
the video the mix was generated from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := a.newMiner(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			playlist, err := m.Playlist(cmd.Context(), args[0], videoID)
			if err != nil {
				return err
			}
			return a.emit(playlist)
		},
	}

	playlistCmd.Flags().StringVar(&videoID, "video", "", "Video ID whose watch page carries the mix")
	return playlistCmd
}
