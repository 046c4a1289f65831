package guru

import (
	"errors"
	"time"
)

// Type is the tradition a guru is listed under.
type Type string

const (
	TypeNastik    Type = "Nastik"
	TypeBhaktiyog Type = "Bhaktiyog"
	TypeKarmyogi  Type = "Karmyogi"
	TypeJnanayog  Type = "Jnanayog"
	TypeRajayog   Type = "Rajayog"
	TypeOther     Type = "Other"
)

type Image struct {
	URL     string `json:"url" binding:"required,url"`
	Caption string `json:"caption,omitempty"`
}

type Video struct {
	URL   string `json:"url" binding:"required,url"`
	Title string `json:"title,omitempty"`
}

type Book struct {
	Title  string `json:"title" binding:"required"`
	PDFURL string `json:"pdfUrl,omitempty" binding:"omitempty,url"`
}

// EraRef is the category a guru belongs to, populated with its name on reads.
type EraRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Guru struct {
	ID              string    `json:"id"`
	FullName        string    `json:"fullName"`
	DOB             Date      `json:"dob"`
	DOD             *Date     `json:"dod,omitempty"`
	BirthPlace      string    `json:"birthPlace"`
	GuruType        Type      `json:"guruType"`
	Aashram         string    `json:"aashram,omitempty"`
	Era             EraRef    `json:"era"`
	Bio             string    `json:"bio"`
	ProfileImageURL string    `json:"profileImageUrl"`
	BgImageURL      string    `json:"bgImageUrl,omitempty"`
	Images          []Image   `json:"images,omitempty"`
	Videos          []Video   `json:"videos,omitempty"`
	Books           []Book    `json:"books,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Summary drops the gallery, videos and books for list views.
func (g Guru) Summary() Guru {
	g.Images = nil
	g.Videos = nil
	g.Books = nil
	return g
}

var (
	ErrNotFound   = errors.New("guru not found")
	ErrUnknownEra = errors.New("era does not reference an existing category")
)

type ListGurusFilter struct {
	EraID *string
}

type CreateGuruRequest struct {
	FullName        string  `json:"fullName" binding:"required,max=200"`
	DOB             *Date   `json:"dob" binding:"required"`
	DOD             *Date   `json:"dod"`
	BirthPlace      string  `json:"birthPlace" binding:"required,max=200"`
	GuruType        Type    `json:"guruType" binding:"required,oneof=Nastik Bhaktiyog Karmyogi Jnanayog Rajayog Other"`
	Aashram         string  `json:"aashram" binding:"omitempty,max=200"`
	Era             string  `json:"era" binding:"required"`
	Bio             string  `json:"bio" binding:"required"`
	ProfileImageURL string  `json:"profileImageUrl" binding:"required,url"`
	BgImageURL      string  `json:"bgImageUrl" binding:"omitempty,url"`
	Images          []Image `json:"images" binding:"omitempty,dive"`
	Videos          []Video `json:"videos" binding:"omitempty,dive"`
	Books           []Book  `json:"books" binding:"omitempty,dive"`
}

// UpdateGuruRequest is a partial update: nil fields keep the stored value,
// arrays are replaced wholesale when present.
type UpdateGuruRequest struct {
	FullName        *string      `json:"fullName" binding:"omitempty,min=1,max=200"`
	DOB             *Date        `json:"dob"`
	DOD             NullableDate `json:"dod"`
	BirthPlace      *string      `json:"birthPlace" binding:"omitempty,max=200"`
	GuruType        *Type        `json:"guruType" binding:"omitempty,oneof=Nastik Bhaktiyog Karmyogi Jnanayog Rajayog Other"`
	Aashram         *string      `json:"aashram"`
	Era             *string      `json:"era" binding:"omitempty,min=1"`
	Bio             *string      `json:"bio"`
	ProfileImageURL *string      `json:"profileImageUrl" binding:"omitempty,url"`
	BgImageURL      *string      `json:"bgImageUrl" binding:"omitempty,url"`
	Images          *[]Image     `json:"images" binding:"omitempty,dive"`
	Videos          *[]Video     `json:"videos" binding:"omitempty,dive"`
	Books           *[]Book      `json:"books" binding:"omitempty,dive"`
}
