package dto

import (
	"github.com/docker/go-units"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

// ============================================================================
// Request DTOs
// ============================================================================

// GenerateSpecQuery selects the runtime config to generate
type GenerateSpecQuery struct {
	Rootless bool   `form:"rootless"`
	UID      uint32 `form:"uid"`
	GID      uint32 `form:"gid"`
	Format   string `form:"format" binding:"omitempty,oneof=json yaml"`
}

// ReferenceQuery is an image reference to parse
type ReferenceQuery struct {
	Ref    string `form:"ref" binding:"required"`
	Mirror string `form:"mirror"`
}

// VerifyQuery names the image to verify
type VerifyQuery struct {
	Repository string `form:"repository" binding:"required"`
	Reference  string `form:"reference" binding:"required"`
}

// ============================================================================
// Response DTOs
// ============================================================================

type ValidateResponse struct {
	Kind     domain.DocumentKind `json:"kind"`
	Valid    bool                `json:"valid"`
	Document any                 `json:"document"`
}

type ReferenceResponse struct {
	Reference        string `json:"reference"`
	Registry         string `json:"registry"`
	ResolvedRegistry string `json:"resolvedRegistry"`
	Namespace        string `json:"namespace,omitempty"`
	Repository       string `json:"repository"`
	Tag              string `json:"tag,omitempty"`
	Digest           string `json:"digest,omitempty"`
	Identifier       string `json:"identifier"`
}

type DigestResponse struct {
	Digest    image.Digest `json:"digest"`
	Size      int64        `json:"size"`
	HumanSize string       `json:"humanSize"`
}

type LayerVerificationResponse struct {
	Digest      image.Digest    `json:"digest"`
	MediaType   image.MediaType `json:"mediaType"`
	Compression string          `json:"compression"`
	DiffID      image.Digest    `json:"diffID"`
	Expected    image.Digest    `json:"expected"`
	Match       bool            `json:"match"`
}

type VerifyResponse struct {
	Manifest image.Digest                `json:"manifest"`
	Config   image.Digest                `json:"config"`
	Platform string                      `json:"platform"`
	Valid    bool                        `json:"valid"`
	Layers   []LayerVerificationResponse `json:"layers"`
}

type ImageInventoryResponse struct {
	Namespace  string `json:"namespace"`
	Pod        string `json:"pod"`
	Container  string `json:"container"`
	Image      string `json:"image"`
	ImageID    string `json:"imageID,omitempty"`
	Registry   string `json:"registry,omitempty"`
	Repository string `json:"repository,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	ParseError string `json:"parseError,omitempty"`
	Present    bool   `json:"present"`
}

type ListInventoryResponse struct {
	Items []ImageInventoryResponse `json:"items"`
	Total int                      `json:"total"`
}

// ============================================================================
// Mappers
// ============================================================================

func ToReferenceResponse(r distribution.Reference) ReferenceResponse {
	resp := ReferenceResponse{
		Reference:        r.Whole(),
		Registry:         r.Registry(),
		ResolvedRegistry: r.ResolveRegistry(),
		Repository:       r.Repository(),
		Identifier:       r.Identifier(),
	}
	if ns, ok := r.Namespace(); ok {
		resp.Namespace = ns
	}
	if tag, ok := r.Tag(); ok {
		resp.Tag = tag
	}
	if digest, ok := r.Digest(); ok {
		resp.Digest = digest
	}
	return resp
}

func ToDigestResponse(d image.Digest, size int64) DigestResponse {
	return DigestResponse{
		Digest:    d,
		Size:      size,
		HumanSize: units.HumanSize(float64(size)),
	}
}

func ToVerifyResponse(v *domain.ImageVerification) VerifyResponse {
	layers := make([]LayerVerificationResponse, 0, len(v.Layers))
	for _, l := range v.Layers {
		compression := string(l.Compression)
		if compression == "" {
			compression = "none"
		}
		layers = append(layers, LayerVerificationResponse{
			Digest:      l.Digest,
			MediaType:   l.MediaType,
			Compression: compression,
			DiffID:      l.DiffID,
			Expected:    l.Expected,
			Match:       l.Match,
		})
	}
	return VerifyResponse{
		Manifest: v.Manifest,
		Config:   v.Config,
		Platform: v.Platform,
		Valid:    v.Valid,
		Layers:   layers,
	}
}

func ToImageInventoryResponse(e *domain.ImageInventoryEntry) ImageInventoryResponse {
	return ImageInventoryResponse{
		Namespace:  e.Namespace,
		Pod:        e.Pod,
		Container:  e.Container,
		Image:      e.Image,
		ImageID:    e.ImageID,
		Registry:   e.Registry,
		Repository: e.Repository,
		Identifier: e.Identifier,
		ParseError: e.ParseError,
		Present:    e.Present,
	}
}
