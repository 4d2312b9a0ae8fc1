package models

// Platform identifies the source a record was polled from
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformNews      Platform = "news"
)

// Platforms lists every polled platform in loop start order
var Platforms = []Platform{PlatformTwitter, PlatformInstagram, PlatformYouTube, PlatformNews}

// Valid reports whether p is a known platform
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformInstagram, PlatformYouTube, PlatformNews:
		return true
	}
	return false
}

// Language is the film industry language a post belongs to
type Language string

const (
	LanguageTelugu    Language = "telugu"
	LanguageTamil     Language = "tamil"
	LanguageHindi     Language = "hindi"
	LanguageEnglish   Language = "english"
	LanguageMalayalam Language = "malayalam"
	LanguageKannada   Language = "kannada"
	LanguageMulti     Language = "multi"
	LanguageUnknown   Language = "unknown"
)

// Valid reports whether l is a resolved language
func (l Language) Valid() bool {
	switch l {
	case LanguageTelugu, LanguageTamil, LanguageHindi, LanguageEnglish,
		LanguageMalayalam, LanguageKannada, LanguageMulti:
		return true
	}
	return false
}

// UpdateType is the kind of announcement a post carries
type UpdateType string

const (
	UpdateTypeTrailer      UpdateType = "trailer"
	UpdateTypeTeaser       UpdateType = "teaser"
	UpdateTypePoster       UpdateType = "poster"
	UpdateTypeAnnouncement UpdateType = "announcement"
	UpdateTypeBoxOffice    UpdateType = "box_office"
	UpdateTypeReview       UpdateType = "review"
	UpdateTypeNews         UpdateType = "news"
)

// Valid reports whether t is a known update type
func (t UpdateType) Valid() bool {
	switch t {
	case UpdateTypeTrailer, UpdateTypeTeaser, UpdateTypePoster, UpdateTypeAnnouncement,
		UpdateTypeBoxOffice, UpdateTypeReview, UpdateTypeNews:
		return true
	}
	return false
}

// AccountType describes who runs a tracked account
type AccountType string

const (
	AccountTypeProductionHouse AccountType = "production_house"
	AccountTypeActor           AccountType = "actor"
	AccountTypeDirector        AccountType = "director"
	AccountTypeNewsPortal      AccountType = "news_portal"
)

// Valid reports whether t is a known account type
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeProductionHouse, AccountTypeActor, AccountTypeDirector, AccountTypeNewsPortal:
		return true
	}
	return false
}

// EventStatus is the outcome recorded for a monitoring pass
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusError   EventStatus = "error"
	EventStatusSkipped EventStatus = "skipped"
)

// MediaKind describes an attachment on a raw item
type MediaKind string

const (
	MediaKindNone  MediaKind = ""
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)
