package models

// PlayerStanding - строка таблицы лиги. Вычисляется при каждом запросе, в БД не хранится.
type PlayerStanding struct {
	MemberID      string `json:"member_id"`
	Name          string `json:"name"`
	Rating        int    `json:"rating"`
	GamesRequired int    `json:"games_required"`
	GamesPlayed   int    `json:"games_played"`
	Wins          int    `json:"wins"`
	Draws         int    `json:"draws"`
	Losses        int    `json:"losses"`
}
