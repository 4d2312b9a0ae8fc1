package models

import (
	"strings"
	"time"
)

// SocialAccount is a tracked account on one platform
type SocialAccount struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Platform    Platform    `gorm:"size:16;not null;uniqueIndex:ux_account_platform_username,priority:1" json:"platform"`
	Username    string      `gorm:"size:255;not null;uniqueIndex:ux_account_platform_username,priority:2" json:"username"`
	AccountType AccountType `gorm:"size:32" json:"account_type"`
	Language    Language    `gorm:"size:16" json:"language"`
	Active      bool        `gorm:"not null" json:"is_active"`

	LastCheckedAt *time.Time `json:"last_checked,omitempty"` // advisory only
	CreatedAt     time.Time  `json:"created_at"`
}

func (SocialAccount) TableName() string {
	return "social_accounts"
}

// youtubeSearchPrefix marks a youtube account that is a keyword search feed
// rather than a channel id
const youtubeSearchPrefix = "search:"

// SearchQuery returns the query of a youtube search-feed account
func (a *SocialAccount) SearchQuery() (string, bool) {
	if !strings.HasPrefix(a.Username, youtubeSearchPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(a.Username, youtubeSearchPrefix)), true
}

// IsFeedURL reports whether a news account points at an RSS or Atom feed
func (a *SocialAccount) IsFeedURL() bool {
	return strings.HasPrefix(a.Username, "http://") || strings.HasPrefix(a.Username, "https://")
}

func account(name string, platform Platform, username string, kind AccountType, lang Language) SocialAccount {
	return SocialAccount{
		Name:        name,
		Platform:    platform,
		Username:    username,
		AccountType: kind,
		Language:    lang,
		Active:      true,
	}
}

// DefaultAccounts is the seed list inserted on first start
func DefaultAccounts() []SocialAccount {
	return []SocialAccount{
		// Production houses
		account("Geetha Arts", PlatformTwitter, "GeethaArts", AccountTypeProductionHouse, LanguageTelugu),
		account("Geetha Arts", PlatformInstagram, "geethaarts", AccountTypeProductionHouse, LanguageTelugu),
		account("Mythri Movie Makers", PlatformTwitter, "MythriOfficial", AccountTypeProductionHouse, LanguageTelugu),
		account("Mythri Movie Makers", PlatformInstagram, "mythrimoviemakers", AccountTypeProductionHouse, LanguageTelugu),
		account("People Media Factory", PlatformTwitter, "peoplemediafcy", AccountTypeProductionHouse, LanguageTelugu),
		account("People Media Factory", PlatformInstagram, "peoplemediafactory", AccountTypeProductionHouse, LanguageTelugu),
		account("Sri Venkateswara Creations", PlatformTwitter, "SVC_official", AccountTypeProductionHouse, LanguageTelugu),
		account("Vyjayanthi Movies", PlatformTwitter, "VyjayanthiFilms", AccountTypeProductionHouse, LanguageTelugu),
		account("Vyjayanthi Movies", PlatformInstagram, "vyjayanthimovies", AccountTypeProductionHouse, LanguageTelugu),

		// Actors
		account("Allu Arjun", PlatformTwitter, "alluarjun", AccountTypeActor, LanguageTelugu),
		account("Allu Arjun", PlatformInstagram, "alluarjunonline", AccountTypeActor, LanguageTelugu),
		account("Prabhas", PlatformInstagram, "actorprabhas", AccountTypeActor, LanguageTelugu),
		account("Mahesh Babu", PlatformTwitter, "urstrulyMahesh", AccountTypeActor, LanguageTelugu),
		account("Mahesh Babu", PlatformInstagram, "urstrulymahesh", AccountTypeActor, LanguageTelugu),
		account("Jr. NTR", PlatformTwitter, "tarak9999", AccountTypeActor, LanguageTelugu),
		account("Jr. NTR", PlatformInstagram, "jrntr", AccountTypeActor, LanguageTelugu),
		account("Ram Charan", PlatformTwitter, "AlwaysRamCharan", AccountTypeActor, LanguageTelugu),
		account("Ram Charan", PlatformInstagram, "alwaysramcharan", AccountTypeActor, LanguageTelugu),
		account("Chiranjeevi", PlatformTwitter, "KChiruTweets", AccountTypeActor, LanguageTelugu),
		account("Chiranjeevi", PlatformInstagram, "chiranjeevikonidela", AccountTypeActor, LanguageTelugu),
		account("Rashmika Mandanna", PlatformTwitter, "iamRashmika", AccountTypeActor, LanguageMulti),
		account("Rashmika Mandanna", PlatformInstagram, "rashmika_mandanna", AccountTypeActor, LanguageMulti),

		// Directors
		account("S.S. Rajamouli", PlatformTwitter, "ssrajamouli", AccountTypeDirector, LanguageTelugu),
		account("S.S. Rajamouli", PlatformInstagram, "ssrajamouli", AccountTypeDirector, LanguageTelugu),
		account("Puri Jagannadh", PlatformTwitter, "purijagan", AccountTypeDirector, LanguageTelugu),
		account("Puri Jagannadh", PlatformInstagram, "purijagannadh", AccountTypeDirector, LanguageTelugu),

		// News portals
		account("Telugu Film Nagar", PlatformTwitter, "telugufilmnagar", AccountTypeNewsPortal, LanguageTelugu),
		account("Telugu Film Nagar", PlatformInstagram, "telugufilmnagar", AccountTypeNewsPortal, LanguageTelugu),
		account("Andhra Box Office", PlatformTwitter, "AndhraBoxOffice", AccountTypeNewsPortal, LanguageTelugu),
		account("T2BLive", PlatformTwitter, "T2BLive", AccountTypeNewsPortal, LanguageTelugu),
		account("Gulte", PlatformTwitter, "gulteofficial", AccountTypeNewsPortal, LanguageTelugu),
		account("123Telugu", PlatformTwitter, "123telugu", AccountTypeNewsPortal, LanguageTelugu),

		// YouTube channels
		account("Goldmines Telugu", PlatformYouTube, "UCaayLD9i5x4MmIoVZxXSv_g", AccountTypeProductionHouse, LanguageTelugu),
		account("Aditya Movies", PlatformYouTube, "UCjvgGbPPn-FgYeguc5nxG4A", AccountTypeProductionHouse, LanguageTelugu),
		account("Suresh Productions", PlatformYouTube, "UCsKVlYTrvddO4kZJYUFtA6Q", AccountTypeProductionHouse, LanguageTelugu),
		account("Mythri Movie Makers", PlatformYouTube, "UCM7-2cDXfBiZYXm_WfMGS_g", AccountTypeProductionHouse, LanguageTelugu),

		// YouTube keyword searches
		account("Telugu Trailers", PlatformYouTube, youtubeSearchPrefix+"telugu movie trailer 2025", AccountTypeNewsPortal, LanguageTelugu),
		account("Prabhas Search", PlatformYouTube, youtubeSearchPrefix+"prabhas new movie 2025", AccountTypeActor, LanguageTelugu),
		account("Pushpa Search", PlatformYouTube, youtubeSearchPrefix+"allu arjun pushpa 2", AccountTypeActor, LanguageTelugu),
		account("Mahesh Babu Search", PlatformYouTube, youtubeSearchPrefix+"mahesh babu new movie", AccountTypeActor, LanguageTelugu),
		account("Ram Charan Search", PlatformYouTube, youtubeSearchPrefix+"ram charan new movie", AccountTypeActor, LanguageTelugu),
		account("Tollywood Trailers", PlatformYouTube, youtubeSearchPrefix+"tollywood latest trailers", AccountTypeNewsPortal, LanguageTelugu),

		// News sites
		account("Times of India", PlatformNews, "timesofindia.indiatimes.com", AccountTypeNewsPortal, LanguageEnglish),
		account("Indian Express", PlatformNews, "indianexpress.com", AccountTypeNewsPortal, LanguageEnglish),
		account("Hindustan Times", PlatformNews, "hindustantimes.com", AccountTypeNewsPortal, LanguageEnglish),
		account("News18", PlatformNews, "news18.com", AccountTypeNewsPortal, LanguageEnglish),
		account("Firstpost", PlatformNews, "firstpost.com", AccountTypeNewsPortal, LanguageEnglish),
	}
}
