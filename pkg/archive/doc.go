// Package archive exports audit ledger entries to S3 (or any S3-compatible
// store) as JSON Lines, one entry per line, for retention outside the
// database.
//
//	client, err := archive.NewS3Client(ctx, cfg)
//	exp, err := archive.NewExporter(client, cfg)
//	res, err := exp.Export(ctx, entries) // s3://bucket/prefix/20261016T120000Z.jsonl
package archive
