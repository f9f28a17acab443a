package db

const (
	jobColumns = `id, printer_name, printer_uri, ipp_job_id, state, attempts, tape_width,
		high_resolution, stream_bytes, error_message, created_at, updated_at, completed_at`

	InsertJob = `
		INSERT INTO print_jobs (id, printer_name, printer_uri, state, tape_width, high_resolution, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `SELECT ` + jobColumns + ` FROM print_jobs WHERE id = ?`

	UpdateJobState = `
		UPDATE print_jobs SET
			state = ?,
			ipp_job_id = CASE WHEN ? > 0 THEN ? ELSE ipp_job_id END,
			attempts = CASE WHEN ? > attempts THEN ? ELSE attempts END,
			stream_bytes = CASE WHEN ? > 0 THEN ? ELSE stream_bytes END,
			error_message = CASE WHEN ? != '' THEN ? ELSE error_message END,
			updated_at = ?,
			completed_at = ?
		WHERE id = ?
	`

	ListFinishedBefore = `SELECT ` + jobColumns + ` FROM print_jobs
		WHERE completed_at IS NOT NULL AND completed_at < ?
		ORDER BY completed_at ASC`

	DeleteJob = `DELETE FROM print_jobs WHERE id = ?`

	CountJobsByState = `SELECT state, COUNT(*) FROM print_jobs GROUP BY state`

	InsertArchive = `
		INSERT INTO archives (archive_file, job_count, encrypted, archived_at)
		VALUES (?, ?, ?, ?)
	`

	ListArchives = `
		SELECT id, archive_file, job_count, encrypted, archived_at
		FROM archives ORDER BY archived_at DESC LIMIT ? OFFSET ?
	`
)
