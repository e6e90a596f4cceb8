package rawg

// Game is one entry from a paginated game listing.
type Game struct {
	ID              int64
	Slug            string
	Name            string
	Released        string
	Genres          []string
	Platforms       []string
	Metacritic      int
	BackgroundImage string
	ScreenshotCount int
}

// GameDetail is the enriched per-game record.
type GameDetail struct {
	ID         int64
	Slug       string
	Name       string
	Released   string
	Developer  string
	Publisher  string
	Metacritic int
	Genres     []string
	Platforms  []string
}

// Screenshot is one screenshot reference for a game.
type Screenshot struct {
	ID    int64
	Image string
}

// Page is one page of game listing results.
type Page struct {
	Count   int
	Results []Game
	HasNext bool
}

// Wire types below mirror the provider's JSON envelope.

type listResponse struct {
	Count    int        `json:"count"`
	Next     string     `json:"next"`
	Previous string     `json:"previous"`
	Results  []gameJSON `json:"results"`
}

type gameJSON struct {
	ID               int64          `json:"id"`
	Slug             string         `json:"slug"`
	Name             string         `json:"name"`
	Released         string         `json:"released"`
	Metacritic       int            `json:"metacritic"`
	BackgroundImage  string         `json:"background_image"`
	ScreenshotsCount int            `json:"screenshots_count"`
	Genres           []namedJSON    `json:"genres"`
	Platforms        []platformJSON `json:"platforms"`
}

type namedJSON struct {
	Name string `json:"name"`
}

type platformJSON struct {
	Platform namedJSON `json:"platform"`
}

type detailResponse struct {
	ID         int64       `json:"id"`
	Slug       string      `json:"slug"`
	Name       string      `json:"name"`
	Released   string      `json:"released"`
	Metacritic int         `json:"metacritic"`
	Genres     []namedJSON `json:"genres"`
	Developers []namedJSON `json:"developers"`
	Publishers []namedJSON `json:"publishers"`
	Platforms  []platformJSON `json:"platforms"`
}

type screenshotsResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ID    int64  `json:"id"`
		Image string `json:"image"`
	} `json:"results"`
}

func (g gameJSON) toGame() Game {
	out := Game{
		ID:              g.ID,
		Slug:            g.Slug,
		Name:            g.Name,
		Released:        g.Released,
		Metacritic:      g.Metacritic,
		BackgroundImage: g.BackgroundImage,
		ScreenshotCount: g.ScreenshotsCount,
	}
	for _, genre := range g.Genres {
		out.Genres = append(out.Genres, genre.Name)
	}
	for _, p := range g.Platforms {
		out.Platforms = append(out.Platforms, p.Platform.Name)
	}
	return out
}

func (d detailResponse) toDetail() *GameDetail {
	out := &GameDetail{
		ID:         d.ID,
		Slug:       d.Slug,
		Name:       d.Name,
		Released:   d.Released,
		Metacritic: d.Metacritic,
	}
	if len(d.Developers) > 0 {
		out.Developer = d.Developers[0].Name
	}
	if len(d.Publishers) > 0 {
		out.Publisher = d.Publishers[0].Name
	}
	for _, genre := range d.Genres {
		out.Genres = append(out.Genres, genre.Name)
	}
	for _, p := range d.Platforms {
		out.Platforms = append(out.Platforms, p.Platform.Name)
	}
	return out
}
