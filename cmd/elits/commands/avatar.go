package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/persona"
)

var (
	avatarPhoto string
	avatarAngle string
	avatarOut   string
	avatarRef   string
)

var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Generate a stylized agent portrait from a photo",
	Long: `Generate the agent's holographic portrait from a photo of you.

If generation fails on every model, the original photo is written out
unchanged and a note is printed.

Examples:
  elits avatar -f me.jpg -o avatar.png
  elits avatar -f me.jpg --angle left -o avatar-left.png`,
	RunE: runAvatar,
}

func init() {
	avatarCmd.Flags().StringVarP(&avatarPhoto, "file", "f", "", "input photo (jpeg or png)")
	avatarCmd.Flags().StringVar(&avatarAngle, "angle", "front", "head angle (front, left, right)")
	avatarCmd.Flags().StringVarP(&avatarOut, "output", "o", "avatar.png", "output image file")
	avatarCmd.Flags().StringVar(&avatarRef, "style-ref", "", "optional style reference image")
	avatarCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(avatarCmd)
}

func runAvatar(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	key, err := cfg.RequireAPIKey()
	if err != nil {
		return err
	}

	photo, err := os.ReadFile(avatarPhoto)
	if err != nil {
		return err
	}
	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(avatarPhoto), ".png") {
		mime = "image/png"
	}

	ctx := cmd.Context()
	svc, err := persona.NewService(ctx, key, persona.Options{ReferenceImagePath: avatarRef})
	if err != nil {
		return err
	}

	av, err := svc.Avatar(ctx, photo, mime, persona.Angle(avatarAngle))
	if err != nil {
		return err
	}
	if err := os.WriteFile(avatarOut, av.Data, 0644); err != nil {
		return err
	}

	if av.Generated {
		fmt.Printf("wrote %s (%s, model %s)\n", avatarOut, av.MIMEType, av.Model)
	} else {
		fmt.Printf("generation failed on all models; wrote original photo to %s\n", avatarOut)
	}
	return nil
}
