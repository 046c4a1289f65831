package guru

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateGuruRequest) Guru {
	now := time.Now().UTC()

	g := Guru{
		ID:              uuid.NewString(),
		FullName:        req.FullName,
		BirthPlace:      req.BirthPlace,
		GuruType:        req.GuruType,
		Aashram:         req.Aashram,
		Era:             EraRef{ID: req.Era},
		Bio:             req.Bio,
		ProfileImageURL: req.ProfileImageURL,
		BgImageURL:      req.BgImageURL,
		Images:          orEmpty(req.Images),
		Videos:          orEmpty(req.Videos),
		Books:           orEmpty(req.Books),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if g.GuruType == "" {
		g.GuruType = TypeOther
	}

	if req.DOB != nil {
		g.DOB = *req.DOB
	}

	if req.DOD != nil {
		dod := *req.DOD
		g.DOD = &dod
	}

	return g
}

// Apply returns g with every field present in req applied.
func (g Guru) Apply(req UpdateGuruRequest) Guru {
	if req.FullName != nil {
		g.FullName = *req.FullName
	}
	if req.DOB != nil {
		g.DOB = *req.DOB
	}
	if req.DOD.Set {
		g.DOD = req.DOD.Value
	}
	if req.BirthPlace != nil {
		g.BirthPlace = *req.BirthPlace
	}
	if req.GuruType != nil {
		g.GuruType = *req.GuruType
	}
	if req.Aashram != nil {
		g.Aashram = *req.Aashram
	}
	if req.Era != nil {
		g.Era = EraRef{ID: *req.Era}
	}
	if req.Bio != nil {
		g.Bio = *req.Bio
	}
	if req.ProfileImageURL != nil {
		g.ProfileImageURL = *req.ProfileImageURL
	}
	if req.BgImageURL != nil {
		g.BgImageURL = *req.BgImageURL
	}
	if req.Images != nil {
		g.Images = orEmpty(*req.Images)
	}
	if req.Videos != nil {
		g.Videos = orEmpty(*req.Videos)
	}
	if req.Books != nil {
		g.Books = orEmpty(*req.Books)
	}

	g.UpdatedAt = time.Now().UTC()

	return g
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
