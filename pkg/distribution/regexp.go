package distribution

import (
	"regexp"
	"strings"
)

// The reference grammar used by Docker and most registries:
//
//	reference  := name [ ":" tag ] [ "@" digest ]
//	name       := [domain '/'] path-component ['/' path-component]*
//	domain     := domain-component ['.' domain-component]* [':' port-number]
//	tag        := /[\w][\w.-]{0,127}/
//	digest     := algorithm ":" hex
const (
	alphaNumeric    = `[a-z0-9]+`
	separator       = `(?:[._]|__|[-]+)`
	domainComponent = `(?:[a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9])`
	portNumber      = `[0-9]+`
	tagPattern      = `[\w][\w.-]{0,127}`
	digestPattern   = `[A-Za-z][A-Za-z0-9]*(?:[-_+.][A-Za-z][A-Za-z0-9]*)*[:][[:xdigit:]]{32,}`
)

var (
	nameComponent = expression(alphaNumeric, optional(repeated(separator, alphaNumeric)))
	domainPattern = expression(domainComponent, optional(repeated(literal("."), domainComponent)), optional(literal(":"), portNumber))
	pathPattern   = expression(nameComponent, optional(repeated(literal("/"), nameComponent)))
	namePattern   = expression(optional(domainPattern, literal("/")), pathPattern)

	referencePattern = anchored(capture(namePattern), optional(literal(":"), capture(tagPattern)), optional(literal("@"), capture(digestPattern)))

	// ReferenceRegexp captures name, tag and digest of a full reference.
	ReferenceRegexp = regexp.MustCompile(referencePattern)

	// NameRegexp matches a repository name, optionally with a domain.
	NameRegexp = regexp.MustCompile(anchored(namePattern))

	// RepositoryRegexp matches a repository path as a registry serves it,
	// without a domain.
	RepositoryRegexp = regexp.MustCompile(anchored(pathPattern))

	TagRegexp    = regexp.MustCompile(anchored(tagPattern))
	DigestRegexp = regexp.MustCompile(anchored(digestPattern))
)

func literal(s string) string { return regexp.QuoteMeta(s) }

func expression(res ...string) string { return strings.Join(res, "") }

func optional(res ...string) string { return group(expression(res...)) + `?` }

func repeated(res ...string) string { return group(expression(res...)) + `+` }

func group(res ...string) string { return `(?:` + expression(res...) + `)` }

func capture(res ...string) string { return `(` + expression(res...) + `)` }

func anchored(res ...string) string { return `^` + expression(res...) + `$` }
