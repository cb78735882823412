package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/textnorm"
)

const (
	maxKnobRunes  = 200
	maxNotesRunes = 2000
)

// SignalBrief is the news context handed to the prompt.
type SignalBrief struct {
	Title       string
	URL         string
	Source      string
	Summary     string
	Origin      string
	PublishedAt time.Time
}

// PromptInput is everything a generation prompt is assembled from.
type PromptInput struct {
	Candidate   models.Candidate
	Primary     *SignalBrief
	Background  []SignalBrief
	Inclination string
	Style       string
	Notes       string
	WordMin     int
	WordMax     int
	Budgets     map[string]int
}

const systemPrompt = `Eres el editor de un medio digital de campaña en Colombia. Escribes en español neutro, con rigor periodístico.
Reglas:
- No inventes hechos, cifras, citas ni nombres. Usa solo la información entregada.
- No incites a la violencia, al odio ni a la discriminación.
- El titular no menciona al candidato ni su número en el tarjetón.
- Responde solo con un objeto JSON con este esquema:
{"headline": string, "sentiment": "positivo"|"neutral"|"negativo", "seo_keywords": [string],
 "master_editorial": string, "platform_variants": {"long_form": string, "micro_blog": string, "social_feed": string, "forum": string},
 "image_keywords": [string]}`

// BuildPrompt assembles the generation prompt.
func BuildPrompt(in PromptInput) Prompt {
	c := in.Candidate
	var b strings.Builder
	fmt.Fprintf(&b, "Candidato: %s\nCargo: %s (%s)\n", c.Name, c.Office, c.Scope)
	if c.Region != "" {
		fmt.Fprintf(&b, "Región: %s\n", c.Region)
	}
	if c.BallotNumber != "" {
		fmt.Fprintf(&b, "Número en el tarjetón: %s\n", c.BallotNumber)
	}
	if bio := textnorm.Truncate(c.Biography, 1200); bio != "" {
		fmt.Fprintf(&b, "Biografía: %s\n", bio)
	}
	if platform := textnorm.Truncate(c.Platform, 2500); platform != "" {
		fmt.Fprintf(&b, "Programa:\n%s\n", platform)
	}

	b.WriteString("\n")
	if in.Primary != nil {
		b.WriteString("Noticia principal:\n")
		writeBrief(&b, *in.Primary)
		if in.Primary.Origin == "reframe" {
			b.WriteString("(Es una publicación previa de la campaña: replantéala con un ángulo nuevo, sin repetirla.)\n")
		}
	} else {
		b.WriteString("No hay noticia del día: escribe sobre los temas cívicos y el programa del candidato, sin inventar hechos.\n")
	}
	if len(in.Background) > 0 {
		b.WriteString("\nContexto adicional:\n")
		for _, bg := range in.Background {
			writeBrief(&b, bg)
		}
	}

	b.WriteString("\nInstrucciones:\n")
	fmt.Fprintf(&b, "- long_form: entre %d y %d palabras, en markdown, con una sección \"Cómo encaja\" que conecte la noticia con uno o dos ejes del programa", in.WordMin, in.WordMax)
	if c.BallotNumber != "" {
		fmt.Fprintf(&b, " y mencione en negrilla **%s (número %s)**", c.Name, c.BallotNumber)
	}
	b.WriteString(".\n")
	if in.Primary != nil && in.Primary.URL != "" {
		fmt.Fprintf(&b, "- Cierra long_form con la línea \"Fuente: %s\".\n", in.Primary.URL)
	}
	for _, ch := range []string{models.ChannelMicroBlog, models.ChannelSocialFeed, models.ChannelForum} {
		if n := in.Budgets[ch]; n > 0 {
			fmt.Fprintf(&b, "- %s: máximo %d caracteres.\n", ch, n)
		}
	}
	if v := textnorm.Truncate(in.Inclination, maxKnobRunes); v != "" {
		fmt.Fprintf(&b, "- Línea editorial: %s\n", v)
	}
	if v := textnorm.Truncate(in.Style, maxKnobRunes); v != "" {
		fmt.Fprintf(&b, "- Estilo: %s\n", v)
	}
	if v := textnorm.Truncate(in.Notes, maxNotesRunes); v != "" {
		fmt.Fprintf(&b, "- Notas del equipo: %s\n", v)
	}
	return Prompt{System: systemPrompt, User: b.String()}
}

func writeBrief(b *strings.Builder, s SignalBrief) {
	fmt.Fprintf(b, "- %s", s.Title)
	if s.Source != "" {
		fmt.Fprintf(b, " (%s)", s.Source)
	}
	if !s.PublishedAt.IsZero() {
		fmt.Fprintf(b, " [%s]", s.PublishedAt.Format("2006-01-02"))
	}
	if s.URL != "" {
		fmt.Fprintf(b, " %s", s.URL)
	}
	b.WriteString("\n")
	if s.Summary != "" {
		fmt.Fprintf(b, "  %s\n", textnorm.Truncate(s.Summary, 600))
	}
}

// CorrectionPrompt asks for a translated or restructured version of a
// previous output without new facts.
func CorrectionPrompt(in PromptInput, previous Output, issues []string) Prompt {
	raw, _ := json.Marshal(previous)
	var b strings.Builder
	b.WriteString("Corrige el siguiente borrador. Problemas detectados:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	fmt.Fprintf(&b, "\nReglas: todo en español; long_form entre %d y %d palabras; conserva los hechos, no agregues información nueva; mantén el mismo esquema JSON.\n\n", in.WordMin, in.WordMax)
	b.Write(raw)
	return Prompt{System: systemPrompt, User: b.String()}
}

// ImagePrompt describes a documentary-style illustration for the article.
func ImagePrompt(keywords []string, region string) string {
	subject := strings.Join(keywords, ", ")
	if subject == "" {
		subject = "vida cotidiana y participación ciudadana"
	}
	place := "Colombia"
	if region != "" {
		place = region + ", Colombia"
	}
	return fmt.Sprintf("Fotografía documental realista, luz natural, sin texto, sin logos, sin personas identificables: %s en %s.", subject, place)
}
