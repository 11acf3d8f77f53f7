package classify

import (
	"errors"
	"testing"

	"github.com/surveyorhq/surveyor/pkg/models"
)

func TestClassify_EmptyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"tabs and newlines", "\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.query)
			if err == nil {
				t.Fatalf("Classify(%q) expected error, got nil", tt.query)
			}
			var cerr *ClassificationError
			if !errors.As(err, &cerr) {
				t.Errorf("Classify(%q) error = %T, want *ClassificationError", tt.query, err)
			}
		})
	}
}

func TestClassify_QueryType(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  models.QueryType
	}{
		{"api keyword", "How does the S3 api handle multipart uploads", models.QueryTypeTechnical},
		{"architecture keyword", "Explain the architecture of etcd", models.QueryTypeTechnical},
		{"sdk keyword", "Which sdk should I use for push notifications", models.QueryTypeTechnical},
		{"market keyword", "What is the current market for password managers", models.QueryTypeDomain},
		{"concept keyword", "Explain the concept of zero trust", models.QueryTypeDomain},
		{"no keywords defaults to domain", "Tell me about hummingbirds", models.QueryTypeDomain},
		{"both signals", "How is the vector database api market evolving", models.QueryTypeHybrid},
		{"mixed case", "Compare the REST API with the industry trend", models.QueryTypeHybrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.query)
			if err != nil {
				t.Fatalf("Classify(%q) unexpected error: %v", tt.query, err)
			}
			if got.QueryType != tt.want {
				t.Errorf("Classify(%q).QueryType = %v, want %v", tt.query, got.QueryType, tt.want)
			}
		})
	}
}

func TestClassify_Complexity(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  models.Complexity
	}{
		{"single narrow concept", "What is a bloom filter", models.ComplexitySimple},
		{"single technical concept", "How does the fsync api work", models.ComplexitySimple},
		{"explicit comparison", "Compare Postgres replication with MySQL replication", models.ComplexityModerate},
		{"two clauses", "Explain the history of espresso and its adoption in Italy", models.ComplexityModerate},
		{"breadth signal", "Survey the current landscape of password managers", models.ComplexityComplex},
		{"cross domain", "How is the vector database api market evolving, and which library leads adoption", models.ComplexityComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.query)
			if err != nil {
				t.Fatalf("Classify(%q) unexpected error: %v", tt.query, err)
			}
			if got.Complexity != tt.want {
				t.Errorf("Classify(%q).Complexity = %v, want %v", tt.query, got.Complexity, tt.want)
			}
		})
	}
}

func TestClassify_WorkerCountBounds(t *testing.T) {
	// Worker count must stay in [2,6] and inside the range for the tier,
	// whatever the query looks like.
	queries := []string{
		"What is a bloom filter",
		"Compare Postgres replication with MySQL replication",
		"Survey the ecosystem of api gateways, pricing trends, and community adoption",
		"a",
		"Explain quantum computing and cryptography and networking and storage and compilers",
		"api api api market market market versus versus",
	}

	for _, q := range queries {
		got, err := Classify(q)
		if err != nil {
			t.Fatalf("Classify(%q) unexpected error: %v", q, err)
		}
		if got.WorkerCount < models.MinWorkers || got.WorkerCount > models.MaxWorkers {
			t.Errorf("Classify(%q).WorkerCount = %d, want in [%d,%d]",
				q, got.WorkerCount, models.MinWorkers, models.MaxWorkers)
		}
		lo, hi := got.Complexity.WorkerRange()
		if got.WorkerCount < lo || got.WorkerCount > hi {
			t.Errorf("Classify(%q).WorkerCount = %d, want in [%d,%d] for %s",
				q, got.WorkerCount, lo, hi, got.Complexity)
		}
		if !got.Valid() {
			t.Errorf("Classify(%q) produced invalid classification: %+v", q, got)
		}
	}
}

func TestClassify_TieBreaksLow(t *testing.T) {
	// Ambiguous queries get the cheap end of the range.
	got, err := Classify("What is a bloom filter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2 (low bound for simple)", got.WorkerCount)
	}

	got, err = Classify("Explain the history of espresso and its adoption in Italy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Complexity != models.ComplexityModerate {
		t.Fatalf("Complexity = %v, want moderate", got.Complexity)
	}
	if got.WorkerCount != 3 {
		t.Errorf("WorkerCount = %d, want 3 (low bound for moderate)", got.WorkerCount)
	}
}

func TestClassify_FormatHint(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  models.Format
	}{
		{"simple gets brief", "What is a bloom filter", models.FormatBrief},
		{"moderate gets report", "Compare Postgres replication with MySQL replication", models.FormatReport},
		{"complex gets report", "Survey the current landscape of password managers", models.FormatReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.query)
			if err != nil {
				t.Fatalf("Classify(%q) unexpected error: %v", tt.query, err)
			}
			if got.FormatHint != tt.want {
				t.Errorf("Classify(%q).FormatHint = %v, want %v", tt.query, got.FormatHint, tt.want)
			}
		})
	}
}
