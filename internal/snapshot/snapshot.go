// Package snapshot defines the immutable data model produced by file
// discovery and the static analyzers, and consumed read-only by every
// downstream stage of the pipeline (scorer, packer, rounds, renderers).
package snapshot

// FileEntry describes one discovered repository file. Entries are created
// once by discovery and never mutated afterward.
type FileEntry struct {
	RelPath   string
	AbsPath   string
	Size      int64
	Extension string // lowercased, including the leading dot
	Hash      string // SHA-256 hex; discovery leaves it empty and no later stage sets it
}

// FileTreeTotals summarizes the whole discovered tree.
type FileTreeTotals struct {
	Files int
	Dirs  int
	Lines int
	Bytes int64
}

// LargeFile is an entry in the top-20-by-size list.
type LargeFile struct {
	Path string
	Size int64
}

// DirNode is one node of the depth-limited directory tree.
type DirNode struct {
	Name     string
	IsDir    bool
	Size     int64
	Children []DirNode `json:",omitempty"`
}

// FileTreeResult is the output of the FileTree analyzer (C3.1).
type FileTreeResult struct {
	Totals          FileTreeTotals
	ByExtension     map[string]int
	LargestFiles    []LargeFile
	Tree            []DirNode
}

// DependencyKind classifies a manifest entry.
type DependencyKind string

const (
	DependencyProduction DependencyKind = "production"
	DependencyDevelopment DependencyKind = "development"
	DependencyPeer        DependencyKind = "peer"
	DependencyOptional    DependencyKind = "optional"
)

// Dependency is a single parsed manifest dependency.
type Dependency struct {
	Name    string
	Version string
	Kind    DependencyKind
}

// Manifest is one parsed dependency manifest file.
type Manifest struct {
	File         string
	Ecosystem    string
	Dependencies []Dependency
}

// DependenciesResult is the output of the Dependencies analyzer (C3.2).
type DependenciesResult struct {
	Manifests []Manifest
	Warnings  []string
}

// BranchStrategy classifies observed branching conventions.
type BranchStrategy string

const (
	StrategyGitFlow       BranchStrategy = "git-flow"
	StrategyTrunkBased    BranchStrategy = "trunk-based"
	StrategyFeatureBranch BranchStrategy = "feature-branch"
	StrategyUnknown       BranchStrategy = "unknown"
)

// BranchPattern summarizes the repository's branching convention.
type BranchPattern struct {
	Strategy      BranchStrategy
	Evidence      []string
	ActiveBranches []string
	StaleBranches  []string
	DefaultBranch  string
	Count          int
}

// Commit is one entry in the recent commit log.
type Commit struct {
	Hash    string
	Author  string
	DateISO string
	Message string
}

// ChangedFile is one entry in the most-changed-files list.
type ChangedFile struct {
	Path        string
	ChangeCount int
}

// Contributor is one repository contributor.
type Contributor struct {
	Name        string
	Email       string
	CommitCount int
}

// GitHistoryResult is the output of the GitHistory analyzer (C3.3).
type GitHistoryResult struct {
	IsGitRepo      bool
	Warning        string
	BranchPattern  BranchPattern
	RecentCommits  []Commit
	MostChanged    []ChangedFile
	ActivityByMonth map[string]int // "YYYY-MM" -> count
	Contributors   []Contributor
	FileOwnership  map[string]string // path -> top contributor name
}

// TodoCategory classifies a marker found by the TODO scanner.
type TodoCategory string

const (
	TodoBugs         TodoCategory = "bugs"
	TodoTasks        TodoCategory = "tasks"
	TodoNotes        TodoCategory = "notes"
	TodoDebt         TodoCategory = "debt"
	TodoOptimization TodoCategory = "optimization"
)

// TodoItem is a single discovered marker.
type TodoItem struct {
	Marker    string
	Category  TodoCategory
	Text      string
	File      string
	Line      int
	IssueRefs []string
}

// TodoSummary aggregates counts across categories.
type TodoSummary struct {
	Total      int
	ByCategory map[TodoCategory]int
}

// TodosResult is the output of the TodoScanner analyzer (C3.4).
type TodosResult struct {
	Items   []TodoItem
	Summary TodoSummary
}

// EnvFile is one discovered .env-style file.
type EnvFile struct {
	Path      string
	Variables []string
}

// EnvReference is one source-code reference to an environment variable.
type EnvReference struct {
	File     string
	Line     int
	Variable string
}

// EnvResult is the output of the EnvScanner analyzer (C3.5).
type EnvResult struct {
	Files      []EnvFile
	References []EnvReference
	Warnings   []string
}

// Parameter is one function/method parameter.
type Parameter struct {
	Name string
	Type string
}

// Import is one import statement in a parsed file.
type Import struct {
	Source string
}

// Export is one exported symbol.
type Export struct {
	Name string
}

// Function describes a parsed function or method signature.
type Function struct {
	Name       string
	Parameters []Parameter
	ReturnType string
	IsAsync    bool
	StartLine  int
	EndLine    int
}

// Visibility classifies a class member's access level.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Method is one class member function.
type Method struct {
	Name       string
	Parameters []Parameter
	Visibility Visibility
}

// Class describes a parsed class/type with methods.
type Class struct {
	Name    string
	Methods []Method
}

// ParsedFile is the stable shape produced by a language-specific AST
// extractor plugin. The extractor itself is an external capability; the
// analyzer only consumes this shape.
type ParsedFile struct {
	Path      string
	Language  string
	LineCount int
	Imports   []Import
	Exports   []Export
	Functions []Function
	Classes   []Class
}

// ASTSummary aggregates totals across all parsed files.
type ASTSummary struct {
	TotalFiles      int
	TotalFunctions  int
	TotalClasses    int
	ByLanguage      map[string]int
}

// ASTResult is the output of the AST analyzer (C3.6).
type ASTResult struct {
	Files   []ParsedFile
	Summary ASTSummary
}

// TestFile describes one detected test file.
type TestFile struct {
	Path      string
	Framework string
	TestCount int
}

// TestsSummary aggregates test-detection totals.
type TestsSummary struct {
	TotalTestFiles int
	Frameworks     []string
	HasConfig      bool
}

// TestsResult is the output of the Tests analyzer (C3.7).
type TestsResult struct {
	Files        []TestFile
	Frameworks   []string
	HasConfig    bool
	ConfigFiles  []string
	CoverageData string
	Summary      TestsSummary
}

// DocCoverage summarizes inline-documentation coverage.
type DocCoverage struct {
	FilesWithDocs int
	TotalFiles    int
	Percentage    float64
}

// DocsSummary aggregates doc-detection totals.
type DocsSummary struct {
	ReadmeCount int
	DocFileCount int
	HasDocsFolder bool
}

// DocsResult is the output of the Docs analyzer (C3.8).
type DocsResult struct {
	ReadmePaths []string
	DocsFolder  string
	DocFiles    []string
	Coverage    DocCoverage
	Summary     DocsSummary
}

// Metadata records facts about the analysis run itself.
type Metadata struct {
	AnalyzedAtISO string
	RootDir       string
	FileCount     int
	ElapsedMs     int64
}

// StaticAnalysisResult is the immutable envelope assembled by the
// AnalysisCoordinator (C4) from the eight analyzer outputs. It is owned by
// the coordinator and shared read-only with every downstream component.
type StaticAnalysisResult struct {
	FileTree     FileTreeResult
	Dependencies DependenciesResult
	GitHistory   GitHistoryResult
	Todos        TodosResult
	Env          EnvResult
	AST          ASTResult
	Tests        TestsResult
	Docs         DocsResult
	Metadata     Metadata
}
