package extractor

// bodySelectors is the ordered cascade of selectors tried when locating the
// article body. The first selector that matches wins: semantic containers
// first, site-specific class patterns last.
var bodySelectors = []string{
	"article",
	`[role="main"]`,
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"main",
	".post-body",
	".story-body",
	".article-body",
	".news-content",
	".content-body",
	".body",
	".article",
	".article-wrap",
	".c-pageArticle",
	".c-shortcodeListicle",
	".js-body",
	"#article-body",
	".articleBody",
}

// strippedElements are removed from the chosen container outright.
var strippedElements = []string{
	"script",
	"style",
	"noscript",
	"iframe",
	"nav",
	"header",
	"footer",
	"aside",
}

// strippedAttrPatterns remove any element whose class or id contains one of
// these substrings (case-insensitive): ads, social widgets, share buttons,
// related-article boxes, comment sections and similar boilerplate.
var strippedAttrPatterns = []string{
	"advertisement",
	"ad-",
	"social",
	"share",
	"related",
	"recommend",
	"comment",
	"sidebar",
	"widget",
	"newsletter",
	"subscription",
}

// lazySrcAttrs are deferred-source attributes promoted to src before images
// are collected.
var lazySrcAttrs = []string{
	"data-src",
	"data-lazy-src",
	"data-original",
}
