package apifootball

type fixturesEnvelope struct {
	Get      string            `json:"get"`
	Errors   any               `json:"errors"`
	Results  int               `json:"results"`
	Response []fixtureDocument `json:"response"`
}

type fixtureDocument struct {
	Fixture    fixtureInfo          `json:"fixture"`
	League     leagueInfo           `json:"league"`
	Teams      teamsInfo            `json:"teams"`
	Goals      goalsInfo            `json:"goals"`
	Events     []eventItem          `json:"events"`
	Lineups    []lineupItem         `json:"lineups"`
	Statistics []teamStatisticsItem `json:"statistics"`
	Players    []teamPlayersItem    `json:"players"`
}

type fixtureInfo struct {
	ID        int64      `json:"id"`
	Referee   *string    `json:"referee"`
	Date      string     `json:"date"`
	Timestamp int64      `json:"timestamp"`
	Venue     venueInfo  `json:"venue"`
	Status    statusInfo `json:"status"`
}

type venueInfo struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
	City *string `json:"city"`
}

type statusInfo struct {
	Long    string `json:"long"`
	Short   string `json:"short"`
	Elapsed *int   `json:"elapsed"`
	Extra   *int   `json:"extra"`
}

type leagueInfo struct {
	ID     *int64 `json:"id"`
	Season *int   `json:"season"`
}

type teamsInfo struct {
	Home teamInfo `json:"home"`
	Away teamInfo `json:"away"`
}

type teamInfo struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type goalsInfo struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type eventItem struct {
	Time struct {
		Elapsed *int `json:"elapsed"`
		Extra   *int `json:"extra"`
	} `json:"time"`
	Team     teamInfo   `json:"team"`
	Player   personInfo `json:"player"`
	Assist   personInfo `json:"assist"`
	Type     string     `json:"type"`
	Detail   string     `json:"detail"`
	Comments *string    `json:"comments"`
}

type personInfo struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

type lineupItem struct {
	Team        teamInfo          `json:"team"`
	Coach       personInfo        `json:"coach"`
	Formation   string            `json:"formation"`
	StartXI     []lineupSlotEntry `json:"startXI"`
	Substitutes []lineupSlotEntry `json:"substitutes"`
}

type lineupSlotEntry struct {
	Player struct {
		ID     *int64  `json:"id"`
		Name   *string `json:"name"`
		Number *int    `json:"number"`
		Pos    *string `json:"pos"`
		Grid   *string `json:"grid"`
	} `json:"player"`
}

type teamStatisticsItem struct {
	Team       teamInfo `json:"team"`
	Statistics []struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	} `json:"statistics"`
}

type teamPlayersItem struct {
	Team    teamInfo `json:"team"`
	Players []struct {
		Player     personInfo         `json:"player"`
		Statistics []playerStatsBlock `json:"statistics"`
	} `json:"players"`
}

type playerStatsBlock struct {
	Games struct {
		Minutes    *int    `json:"minutes"`
		Number     *int    `json:"number"`
		Position   *string `json:"position"`
		Rating     *string `json:"rating"`
		Captain    bool    `json:"captain"`
		Substitute *bool   `json:"substitute"`
	} `json:"games"`
	Offsides *int `json:"offsides"`
	Shots    struct {
		Total *int `json:"total"`
		On    *int `json:"on"`
	} `json:"shots"`
	Goals struct {
		Total    *int `json:"total"`
		Conceded *int `json:"conceded"`
		Assists  *int `json:"assists"`
		Saves    *int `json:"saves"`
	} `json:"goals"`
	Passes struct {
		Total *int `json:"total"`
		Key   *int `json:"key"`
	} `json:"passes"`
	Tackles struct {
		Total         *int `json:"total"`
		Blocks        *int `json:"blocks"`
		Interceptions *int `json:"interceptions"`
	} `json:"tackles"`
	Duels struct {
		Total *int `json:"total"`
		Won   *int `json:"won"`
	} `json:"duels"`
	Dribbles struct {
		Attempts *int `json:"attempts"`
		Success  *int `json:"success"`
	} `json:"dribbles"`
	Fouls struct {
		Drawn     *int `json:"drawn"`
		Committed *int `json:"committed"`
	} `json:"fouls"`
	Cards struct {
		Yellow *int `json:"yellow"`
		Red    *int `json:"red"`
	} `json:"cards"`
	Penalty struct {
		Won       *int `json:"won"`
		Committed *int `json:"commited"`
		Scored    *int `json:"scored"`
		Missed    *int `json:"missed"`
		Saved     *int `json:"saved"`
	} `json:"penalty"`
}
