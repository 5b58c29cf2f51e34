package hallucination

// DefaultTopPackages is the process-wide reference set used for typosquat
// comparison (§4.H.1, §9 "Top-package list"): a representative slice of the
// most-depended-on packages across npm/pypi/crates/go. It is treated as an
// immutable constant for the duration of a run; it may be refreshed
// out-of-band (e.g. downloaded periodically) but never mutated mid-run.
var DefaultTopPackages = []string{
	"react", "react-dom", "lodash", "express", "axios", "chalk", "commander",
	"webpack", "typescript", "eslint", "prettier", "vue", "next", "nuxt",
	"jest", "mocha", "moment", "uuid", "dotenv", "redux", "rxjs", "jquery",
	"requests", "numpy", "pandas", "flask", "django", "pytest", "pip",
	"setuptools", "click", "pyyaml", "boto3", "scipy", "matplotlib",
	"sqlalchemy", "pillow", "cryptography", "urllib3", "certifi",
	"serde", "tokio", "clap", "rand", "regex", "anyhow", "thiserror",
	"log", "env_logger", "reqwest",
	"github.com/gin-gonic/gin", "github.com/spf13/cobra", "github.com/stretchr/testify",
	"github.com/pkg/errors", "github.com/sirupsen/logrus",
}
