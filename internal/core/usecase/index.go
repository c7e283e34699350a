package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/connectbase/member-search/internal/core/domain"
	"github.com/connectbase/member-search/internal/core/ports"
)

// IndexProfileUseCase rebuilds the relevance rows for one membership:
// text blobs are derived from the profile record, embedded through the
// failover gateway, and written to the vector index while the member
// store refreshes its lexical document.
type IndexProfileUseCase struct {
	members  ports.MemberStore
	embedder ports.Embedder
	vectors  ports.VectorIndex
	logger   *slog.Logger
}

func NewIndexProfileUseCase(
	members ports.MemberStore,
	embedder ports.Embedder,
	vectors ports.VectorIndex,
	logger *slog.Logger,
) *IndexProfileUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexProfileUseCase{
		members:  members,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

func (uc *IndexProfileUseCase) IndexByMembershipID(ctx context.Context, membershipID string) error {
	membershipID = strings.TrimSpace(membershipID)
	if membershipID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "index profile",
			fmt.Errorf("empty membership id"))
	}

	profile, err := uc.members.GetProfile(ctx, membershipID)
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "index profile", err)
	}

	profile.ProfileText = buildProfileText(*profile)
	profile.SkillsText = buildSkillsText(*profile)

	vectors, err := uc.embedder.EmbedTexts(ctx, []string{profile.ProfileText})
	if err != nil {
		return fmt.Errorf("embed profile %s: %w", membershipID, err)
	}

	if err := uc.vectors.UpsertProfile(ctx, *profile, vectors[0]); err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "index profile", err)
	}
	if err := uc.members.UpsertSearchDocument(ctx, *profile); err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "index profile", err)
	}

	uc.logger.Info("profile_indexed", "membership_id", membershipID, "model", vectors[0].Model)
	return nil
}

// buildProfileText flattens the profile into the blob the vector index
// embeds. Field order is stable so re-indexing an unchanged profile
// produces identical text.
func buildProfileText(profile domain.MemberProfile) string {
	parts := make([]string, 0, 6)
	if profile.Name != "" {
		parts = append(parts, profile.Name)
	}
	if profile.Degree != "" {
		parts = append(parts, profile.Degree)
	}
	if profile.GraduationYear > 0 {
		parts = append(parts, fmt.Sprintf("graduated %d", profile.GraduationYear))
	}
	if profile.Location != "" {
		parts = append(parts, profile.Location)
	}
	if len(profile.Skills) > 0 {
		parts = append(parts, strings.Join(profile.Skills, ", "))
	}
	if len(profile.Services) > 0 {
		parts = append(parts, strings.Join(profile.Services, ", "))
	}
	return strings.Join(parts, ". ")
}

func buildSkillsText(profile domain.MemberProfile) string {
	all := make([]string, 0, len(profile.Skills)+len(profile.Services))
	all = append(all, profile.Skills...)
	all = append(all, profile.Services...)
	return strings.Join(all, ", ")
}
