package main

import (
	"fmt"
	"io"
	"os"

	godigest "github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"oci-registry-service/internal/adapters/primary/http/dto"
	"oci-registry-service/internal/adapters/secondary/layout"
	"oci-registry-service/internal/core/domain"
	"oci-registry-service/internal/core/services"
	"oci-registry-service/pkg/image"
	"oci-registry-service/pkg/oci"
)

// NewRootCmd builds the ocispec command tree.
func NewRootCmd() *cobra.Command {
	var (
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:          "ocispec",
		Short:        "Inspect, generate and validate OCI documents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q", output)
			}
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "json", `Output format ("json", "yaml")`)
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	validation := services.NewValidationService(nil)

	cmd.AddCommand(
		newSpecCmd(validation),
		newValidateCmd(validation),
		newReferenceCmd(validation),
		newDigestCmd(),
		newLayoutCmd(),
	)
	return cmd
}

// printOutput writes v to the command's output in the selected format.
func printOutput(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()

	if format == "yaml" {
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("render yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	if err := oci.ToWriter(w, v, true); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func newSpecCmd(validation *services.ValidationService) *cobra.Command {
	var (
		rootless bool
		uid      uint32
		gid      uint32
	)

	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print a default runtime config",
		Long: `Print the default runtime config for a Linux container.
With --rootless the config runs as --uid/--gid inside a user namespace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rootless && (cmd.Flags().Changed("uid") || cmd.Flags().Changed("gid")) {
				return fmt.Errorf("--uid and --gid require --rootless")
			}
			return printOutput(cmd, validation.GenerateSpec(rootless, uid, gid))
		},
	}
	cmd.Flags().BoolVar(&rootless, "rootless", false, "Generate a config for a rootless container")
	cmd.Flags().Uint32Var(&uid, "uid", uint32(os.Getuid()), "Host uid mapped to root in the container")
	cmd.Flags().Uint32Var(&gid, "gid", uint32(os.Getgid()), "Host gid mapped to root in the container")
	return cmd
}

func newValidateCmd(validation *services.ValidationService) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <kind> <file>",
		Short: "Validate a document",
		Long: fmt.Sprintf(`Decode a file as the named document kind and run its checks.
Kinds: %s, %s, %s, %s, %s, %s, %s, %s.`,
			domain.DocumentRuntimeSpec, domain.DocumentRuntimeState, domain.DocumentRuntimeFeatures,
			domain.DocumentImageConfig, domain.DocumentImageManifest, domain.DocumentImageIndex,
			domain.DocumentArtifactManifest, domain.DocumentImageLayout),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			kind := domain.DocumentKind(args[0])
			doc, err := validation.Validate(kind, content)
			if err != nil {
				return err
			}
			log.WithField("kind", kind).Debug("document valid")

			return printOutput(cmd, dto.ValidateResponse{Kind: kind, Valid: true, Document: doc})
		},
	}
}

func newReferenceCmd(validation *services.ValidationService) *cobra.Command {
	var mirror string

	cmd := &cobra.Command{
		Use:   "reference <ref>",
		Short: "Parse an image reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := validation.ParseReference(args[0], mirror)
			if err != nil {
				return err
			}
			return printOutput(cmd, dto.ToReferenceResponse(ref))
		},
	}
	cmd.Flags().StringVar(&mirror, "mirror", "", "Registry to resolve the reference against")
	return cmd
}

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest <file>",
		Short: "Compute the sha256 digest of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			digester := godigest.Canonical.Digester()
			size, err := io.Copy(digester.Hash(), f)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			d, err := image.FromGoDigest(digester.Digest())
			if err != nil {
				return err
			}
			return printOutput(cmd, dto.ToDigestResponse(d, size))
		},
	}
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Manage OCI image layout directories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init <dir>",
		Short: "Create an empty image layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := layout.NewBlobStore(args[0]); err != nil {
				return err
			}
			return printOutput(cmd, image.NewOciLayout())
		},
	})
	return cmd
}
