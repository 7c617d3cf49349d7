// Package requestid tags each admin API request with an identifier.
//
// Middleware accepts a client supplied X-Request-ID when it is short and
// made of letters, digits, '-' and '_'; otherwise a UUID is generated. The
// id is echoed in the response header and stored in the request context.
// LoggerExtractor plugs into logger.WithContextExtractors so that log
// records written with the request context, such as enforcement decisions
// taken by the dry-run check endpoint, carry a request_id attribute.
package requestid
