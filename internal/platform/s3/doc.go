// Package s3 stores operation reports in S3-compatible object storage.
//
// Reports are written under an optional key prefix. The bucket is created on
// first use when it does not exist yet.
package s3
