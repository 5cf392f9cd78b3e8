package folio

import (
	"context"
	"database/sql"
	"errors"
)

// ListAssetTypes returns the known asset classifications ordered by label.
func (c *Core) ListAssetTypes(ctx context.Context) ([]AssetType, error) {
	rows, err := c.query(ctx, c.db, "SELECT code, label, description FROM asset_types ORDER BY label, code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []AssetType{}
	for rows.Next() {
		var at AssetType
		var description sql.NullString
		if err := rows.Scan(&at.Code, &at.Label, &description); err != nil {
			return nil, dbError("failed to scan asset type", err)
		}
		at.Description = description.String
		types = append(types, at)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list asset types", err)
	}
	return types, nil
}

func (c *Core) assetTypeExists(ctx context.Context, q queryer, code string) (bool, error) {
	var found string
	err := c.queryRow(ctx, q, "SELECT code FROM asset_types WHERE code = ?", code).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, dbError("failed to check asset type", err)
	}
	return true, nil
}
