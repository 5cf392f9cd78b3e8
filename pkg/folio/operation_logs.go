package folio

import (
	"context"
	"database/sql"
)

func (c *Core) addOperationLog(ctx context.Context, q queryer, log OperationLog) error {
	if log.ID == "" {
		log.ID = newID()
	}
	_, err := c.exec(ctx, q, `
		INSERT INTO operation_logs (id, user_id, operation, entity_id, details, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, nullString(log.UserID), log.Operation, nullString(log.EntityID), nullString(log.Details),
		nullString(log.OldValue), nullString(log.NewValue), formatTime(c.timestamp()))
	return err
}

// GetOperationLogs returns a user's most recent audit entries.
func (c *Core) GetOperationLogs(ctx context.Context, userID string, limit, offset int) ([]OperationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := c.query(ctx, c.db, `
		SELECT id, user_id, operation, entity_id, details, old_value, new_value, created_at
		FROM operation_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []OperationLog{}
	for rows.Next() {
		var log OperationLog
		var uid, entityID, details, oldValue, newValue sql.NullString
		var createdAt string
		if err := rows.Scan(&log.ID, &uid, &log.Operation, &entityID, &details, &oldValue, &newValue, &createdAt); err != nil {
			return nil, dbError("failed to scan operation log", err)
		}
		log.UserID = stringFromNull(uid)
		log.EntityID = stringFromNull(entityID)
		log.Details = stringFromNull(details)
		log.OldValue = stringFromNull(oldValue)
		log.NewValue = stringFromNull(newValue)
		if log.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, dbError("failed to parse operation log", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list operation logs", err)
	}
	return logs, nil
}
