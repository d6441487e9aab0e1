package db

// AppendTurn records one exchange in the conversation log.
func (d *DB) AppendTurn(userMessage, botResponse string) (int64, error) {
	res, err := d.conn.Exec(
		"INSERT INTO conversation_log (user_message, bot_response, timestamp) VALUES (?, ?, ?)",
		userMessage, botResponse, d.stamp(),
	)
	if err != nil {
		return 0, fault("logging conversation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fault("logging conversation", err)
	}
	return id, nil
}

// RecentTurns returns the newest limit turns, oldest first.
func (d *DB) RecentTurns(limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := d.conn.Query(
		"SELECT id, user_message, bot_response, timestamp FROM conversation_log ORDER BY timestamp DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fault("querying conversation log", err)
	}
	defer rows.Close()
	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts string
		if err := rows.Scan(&t.ID, &t.UserMessage, &t.BotResponse, &ts); err != nil {
			return nil, fault("scanning conversation turn", err)
		}
		if t.Timestamp, err = parseTime(ts); err != nil {
			return nil, fault("scanning conversation timestamp", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("querying conversation log", err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
