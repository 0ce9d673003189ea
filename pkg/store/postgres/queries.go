package postgres

const flagColumns = `id, key, name, description, enabled, rollout_percentage,
	target_user_ids, excluded_user_ids, archived, version, created_at, updated_at`

const querySelectFlags = `SELECT ` + flagColumns + ` FROM feature_flags`

const queryInsertFlag = `
	INSERT INTO feature_flags (key, name, description, enabled, rollout_percentage,
		target_user_ids, excluded_user_ids, archived, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

const queryUpdateFlag = `
	UPDATE feature_flags
	SET name = $2, description = $3, enabled = $4, rollout_percentage = $5,
		target_user_ids = $6, excluded_user_ids = $7, archived = $8,
		version = $9, updated_at = $10
	WHERE key = $1 AND version = $11
	RETURNING id, created_at`

const queryFlagExists = `SELECT EXISTS (SELECT 1 FROM feature_flags WHERE key = $1)`

const killSwitchColumns = `id, flag_key, active, reason, activated_by, activated_at, created_at, updated_at`

const querySelectKillSwitches = `SELECT ` + killSwitchColumns + ` FROM kill_switches`

const queryUpsertKillSwitch = `
	INSERT INTO kill_switches (flag_key, active, reason, activated_by, activated_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (flag_key) DO UPDATE
	SET active = EXCLUDED.active, reason = EXCLUDED.reason, activated_by = EXCLUDED.activated_by,
		activated_at = EXCLUDED.activated_at, updated_at = EXCLUDED.updated_at
	RETURNING id, created_at`

const entryColumns = `seq, id, action, entity_type, entity_key, performed_by, description,
	old_value, new_value, ip_address, request_id, checksum, created_at`

const queryInsertEntry = `
	INSERT INTO audit_logs (id, action, entity_type, entity_key, performed_by, description,
		old_value, new_value, ip_address, request_id, checksum, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING seq`
