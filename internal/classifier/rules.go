package classifier

import (
	"fmt"

	"github.com/amaumene/reelwatch/internal/models"
	"github.com/spf13/viper"
)

// Alias maps a lower-case phrase found in text to a canonical name
type Alias struct {
	Phrase string `mapstructure:"phrase"`
	Name   string `mapstructure:"name"`
}

// TypeRule lists the keywords that mark a post as one update type
type TypeRule struct {
	Type     models.UpdateType `mapstructure:"type"`
	Keywords []string          `mapstructure:"keywords"`
}

// LanguageRule lists the keywords that mark a post as one language
type LanguageRule struct {
	Language models.Language `mapstructure:"language"`
	Keywords []string        `mapstructure:"keywords"`
}

// Rules is the ordered classification data. Order within every list is
// significant: the first match wins.
type Rules struct {
	Actors           []Alias        `mapstructure:"actors"`
	Directors        []Alias        `mapstructure:"directors"`
	ProductionHouses []Alias        `mapstructure:"production_houses"`
	UpdateTypes      []TypeRule     `mapstructure:"update_types"`
	Languages        []LanguageRule `mapstructure:"languages"`
	MoviePatterns    []string       `mapstructure:"movie_patterns"`
}

// DefaultRules returns the built-in Telugu industry tables
func DefaultRules() Rules {
	return Rules{
		Actors: []Alias{
			{"allu arjun", "Allu Arjun"},
			{"prabhas", "Prabhas"},
			{"mahesh babu", "Mahesh Babu"},
			{"jr ntr", "Jr. NTR"},
			{"ntr", "Jr. NTR"},
			{"ram charan", "Ram Charan"},
			{"chiranjeevi", "Chiranjeevi"},
			{"balakrishna", "Balakrishna"},
			{"vijay deverakonda", "Vijay Deverakonda"},
			{"nani", "Nani"},
			{"ravi teja", "Ravi Teja"},
			{"nithiin", "Nithiin"},
			{"sharwanand", "Sharwanand"},
		},
		Directors: []Alias{
			{"rajamouli", "S.S. Rajamouli"},
			{"puri jagannadh", "Puri Jagannadh"},
			{"trivikram", "Trivikram Srinivas"},
			{"koratala siva", "Koratala Siva"},
			{"sukumar", "Sukumar"},
			{"vamshi paidipally", "Vamshi Paidipally"},
		},
		ProductionHouses: []Alias{
			{"geetha arts", "Geetha Arts"},
			{"mythri movie makers", "Mythri Movie Makers"},
			{"people media factory", "People Media Factory"},
			{"sri venkateswara creations", "Sri Venkateswara Creations"},
			{"vyjayanthi movies", "Vyjayanthi Movies"},
			{"dvv entertainments", "DVV Entertainments"},
		},
		UpdateTypes: []TypeRule{
			{models.UpdateTypeTrailer, []string{"trailer", "official trailer"}},
			{models.UpdateTypeTeaser, []string{"teaser", "glimpse", "sneak peek"}},
			{models.UpdateTypePoster, []string{"poster", "first look", "character poster"}},
			{models.UpdateTypeAnnouncement, []string{"release date", "announcement", "official"}},
			{models.UpdateTypeBoxOffice, []string{"box office", "collection", "earnings"}},
			{models.UpdateTypeReview, []string{"review", "rating"}},
		},
		Languages: []LanguageRule{
			{models.LanguageTelugu, []string{"telugu", "tollywood", "andhra", "telangana"}},
			{models.LanguageTamil, []string{"tamil", "kollywood", "tamilnadu"}},
			{models.LanguageHindi, []string{"hindi", "bollywood", "mumbai"}},
			{models.LanguageMalayalam, []string{"malayalam", "mollywood", "kerala"}},
			{models.LanguageKannada, []string{"kannada", "sandalwood", "karnataka"}},
		},
		MoviePatterns: []string{
			`#([\p{L}\p{N}_]+)(?:movie|film|trailer|teaser)`,
			`([\p{L}\p{N}_]+)\s+(?:movie|film|trailer|teaser)`,
			`"([^"]+)"`,
			`'([^']+)'`,
		},
	}
}

// LoadRules reads a YAML, JSON or TOML rules file. Sections missing from the
// file keep their built-in defaults.
func LoadRules(path string) (Rules, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var loaded Rules
	if err := v.Unmarshal(&loaded); err != nil {
		return Rules{}, fmt.Errorf("failed to decode rules file: %w", err)
	}

	rules := DefaultRules()
	if len(loaded.Actors) > 0 {
		rules.Actors = loaded.Actors
	}
	if len(loaded.Directors) > 0 {
		rules.Directors = loaded.Directors
	}
	if len(loaded.ProductionHouses) > 0 {
		rules.ProductionHouses = loaded.ProductionHouses
	}
	if len(loaded.UpdateTypes) > 0 {
		rules.UpdateTypes = loaded.UpdateTypes
	}
	if len(loaded.Languages) > 0 {
		rules.Languages = loaded.Languages
	}
	if len(loaded.MoviePatterns) > 0 {
		rules.MoviePatterns = loaded.MoviePatterns
	}

	return rules, rules.validate()
}

func (r Rules) validate() error {
	for _, rule := range r.UpdateTypes {
		if !rule.Type.Valid() {
			return fmt.Errorf("unknown update type %q", rule.Type)
		}
	}
	for _, rule := range r.Languages {
		if !rule.Language.Valid() {
			return fmt.Errorf("unknown language %q", rule.Language)
		}
	}
	for _, tables := range [][]Alias{r.Actors, r.Directors, r.ProductionHouses} {
		for _, a := range tables {
			if a.Phrase == "" || a.Name == "" {
				return fmt.Errorf("alias entries need both phrase and name")
			}
		}
	}
	return nil
}
