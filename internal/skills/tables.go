package skills

import "sort"

// Category buckets a skill by what kind of technology it is.
type Category string

const (
	CategoryLanguage       Category = "language"
	CategoryFramework      Category = "framework"
	CategoryDatabase       Category = "database"
	CategoryORM            Category = "orm"
	CategoryTesting        Category = "testing"
	CategoryBuild          Category = "build"
	CategoryPackageManager Category = "package_manager"
	CategoryCloud          Category = "cloud"
	CategoryDevOps         Category = "devops"
	CategoryMonitoring     Category = "monitoring"
	CategoryUtility        Category = "utility"
)

// categories maps canonical skill names to their category. Lookup
// happens after normalization, so keys carry no separators.
var categories = map[string]Category{
	// languages
	"python":     CategoryLanguage,
	"javascript": CategoryLanguage,
	"typescript": CategoryLanguage,
	"rust":       CategoryLanguage,
	"go":         CategoryLanguage,
	"java":       CategoryLanguage,
	"csharp":     CategoryLanguage,
	"php":        CategoryLanguage,
	"ruby":       CategoryLanguage,
	"swift":      CategoryLanguage,
	"kotlin":     CategoryLanguage,
	"scala":      CategoryLanguage,

	// frameworks
	"django":    CategoryFramework,
	"flask":     CategoryFramework,
	"fastapi":   CategoryFramework,
	"uvicorn":   CategoryFramework,
	"gunicorn":  CategoryFramework,
	"tornado":   CategoryFramework,
	"aiohttp":   CategoryFramework,
	"starlette": CategoryFramework,
	"bottle":    CategoryFramework,
	"pyramid":   CategoryFramework,
	"react":     CategoryFramework,
	"vue":       CategoryFramework,
	"angular":   CategoryFramework,
	"next":      CategoryFramework,
	"nuxt":      CategoryFramework,
	"express":   CategoryFramework,
	"koa":       CategoryFramework,
	"nest":      CategoryFramework,
	"svelte":    CategoryFramework,
	"ember":     CategoryFramework,
	"backbone":  CategoryFramework,
	"actixweb":  CategoryFramework,
	"rocket":    CategoryFramework,
	"warp":      CategoryFramework,
	"axum":      CategoryFramework,
	"tonic":     CategoryFramework,
	"gin":       CategoryFramework,
	"echo":      CategoryFramework,
	"gorilla":   CategoryFramework,
	"fiber":     CategoryFramework,
	"chi":       CategoryFramework,

	// databases
	"postgresql":    CategoryDatabase,
	"mysql":         CategoryDatabase,
	"sqlite":        CategoryDatabase,
	"mongodb":       CategoryDatabase,
	"redis":         CategoryDatabase,
	"cassandra":     CategoryDatabase,
	"elasticsearch": CategoryDatabase,
	"influxdb":      CategoryDatabase,
	"neo4j":         CategoryDatabase,
	"dynamodb":      CategoryDatabase,

	// orms
	"sqlalchemy": CategoryORM,
	"alembic":    CategoryORM,
	"prisma":     CategoryORM,
	"sequelize":  CategoryORM,
	"typeorm":    CategoryORM,
	"gorm":       CategoryORM,
	"sqlx":       CategoryORM,
	"diesel":     CategoryORM,

	// testing
	"pytest":     CategoryTesting,
	"unittest":   CategoryTesting,
	"jest":       CategoryTesting,
	"mocha":      CategoryTesting,
	"cypress":    CategoryTesting,
	"playwright": CategoryTesting,
	"selenium":   CategoryTesting,
	"testify":    CategoryTesting,
	"criterion":  CategoryTesting,

	// build tools
	"webpack": CategoryBuild,
	"vite":    CategoryBuild,
	"rollup":  CategoryBuild,
	"parcel":  CategoryBuild,
	"esbuild": CategoryBuild,
	"babel":   CategoryBuild,
	"swc":     CategoryBuild,

	// package managers
	"npm":    CategoryPackageManager,
	"yarn":   CategoryPackageManager,
	"pnpm":   CategoryPackageManager,
	"pip":    CategoryPackageManager,
	"poetry": CategoryPackageManager,
	"cargo":  CategoryPackageManager,

	// cloud
	"aws":          CategoryCloud,
	"azure":        CategoryCloud,
	"gcp":          CategoryCloud,
	"heroku":       CategoryCloud,
	"vercel":       CategoryCloud,
	"netlify":      CategoryCloud,
	"digitalocean": CategoryCloud,

	// devops
	"docker":        CategoryDevOps,
	"kubernetes":    CategoryDevOps,
	"terraform":     CategoryDevOps,
	"ansible":       CategoryDevOps,
	"jenkins":       CategoryDevOps,
	"githubactions": CategoryDevOps,
	"gitlabci":      CategoryDevOps,
	"circleci":      CategoryDevOps,
	"travis":        CategoryDevOps,

	// monitoring
	"prometheus": CategoryMonitoring,
	"grafana":    CategoryMonitoring,
	"datadog":    CategoryMonitoring,
	"newrelic":   CategoryMonitoring,
	"sentry":     CategoryMonitoring,
	"logstash":   CategoryMonitoring,
	"fluentd":    CategoryMonitoring,

	// utilities
	"requests":    CategoryUtility,
	"axios":       CategoryUtility,
	"lodash":      CategoryUtility,
	"moment":      CategoryUtility,
	"pandas":      CategoryUtility,
	"numpy":       CategoryUtility,
	"matplotlib":  CategoryUtility,
	"seaborn":     CategoryUtility,
	"scikitlearn": CategoryUtility,
	"tensorflow":  CategoryUtility,
	"pytorch":     CategoryUtility,
}

// aliases resolves alternate spellings to the canonical name. Keys are
// normalized forms (lower-case, separators removed).
var aliases = map[string]string{
	"py":        "python",
	"python3":   "python",
	"js":        "javascript",
	"node":      "javascript",
	"ts":        "typescript",
	"rs":        "rust",
	"golang":    "go",
	"rb":        "ruby",
	"kt":        "kotlin",
	"dotnet":    "csharp",
	"reactjs":   "react",
	"vuejs":     "vue",
	"nextjs":    "next",
	"nuxtjs":    "nuxt",
	"nestjs":    "nest",
	"angularjs": "angular",
	"expressjs": "express",
	"koajs":     "koa",
	"sveltejs":  "svelte",
	"emberjs":   "ember",
	"actix":     "actixweb",
	"asgi":      "uvicorn",
	"wsgi":      "gunicorn",
	"postgres":  "postgresql",
	"psql":      "postgresql",
	"mariadb":   "mysql",
	"sqlite3":   "sqlite",
	"mongo":     "mongodb",
	"redispy":   "redis",
	"elastic":   "elasticsearch",
	"es":        "elasticsearch",
	"influx":    "influxdb",
	"k8s":       "kubernetes",
	"kube":      "kubernetes",
	"sklearn":   "scikitlearn",
	"scikit":    "scikitlearn",
	"tf":        "tensorflow",
	"torch":     "pytorch",
	"do":        "digitalocean",
}

// wellKnown is the curated popularity set used for confidence scoring.
var wellKnown = map[string]struct{}{
	"django": {}, "flask": {}, "fastapi": {}, "requests": {}, "pandas": {},
	"numpy": {}, "pytest": {}, "sqlalchemy": {}, "alembic": {}, "psycopg2": {},
	"redis": {}, "celery": {}, "uvicorn": {},
	"react": {}, "vue": {}, "angular": {}, "express": {}, "next": {},
	"typescript": {}, "jest": {}, "tailwindcss": {}, "axios": {}, "lodash": {},
	"moment": {}, "webpack": {}, "vite": {},
	"tokio": {}, "serde": {}, "actixweb": {}, "sqlx": {}, "clap": {}, "reqwest": {},
	"gin": {}, "echo": {}, "gorilla": {}, "gorm": {}, "testify": {},
	"docker": {}, "git": {}, "npm": {}, "pip": {}, "cargo": {}, "go": {},
}

// highTrustSources are manifests whose declarations count for more than
// freeform detection.
var highTrustSources = map[string]struct{}{
	"requirements.txt":   {},
	"package.json":       {},
	"pyproject.toml":     {},
	"Cargo.toml":         {},
	"go.mod":             {},
	"Dockerfile":         {},
	"docker-compose.yml": {},
}

// popularSkills is a static ranking surfaced by the query API.
var popularSkills = []string{
	"python", "javascript", "react", "django", "docker", "postgresql",
	"typescript", "fastapi", "vue", "express", "redis", "pytest",
	"next", "flask", "mongodb", "jest", "webpack", "kubernetes",
	"aws", "terraform", "prometheus", "grafana",
}

// Categories returns every known category name, sorted.
func Categories() []string {
	seen := map[Category]struct{}{}
	for _, c := range categories {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// CategoryOf reports the category of a canonical skill name,
// CategoryUtility when the name is not in the table.
func CategoryOf(name string) Category {
	if c, ok := categories[Normalize(name)]; ok {
		return c
	}
	return CategoryUtility
}

// Popular returns up to limit entries from the static popularity
// ranking.
func Popular(limit int) []string {
	if limit < 0 {
		limit = 0
	}
	if limit > len(popularSkills) {
		limit = len(popularSkills)
	}
	out := make([]string, limit)
	copy(out, popularSkills[:limit])
	return out
}
