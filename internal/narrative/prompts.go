package narrative

import (
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/fortuna/matchnarrator/internal/match"
)

var matchSummaryTemplate = template.Must(template.New("match_summary").Parse(`Elabore um resumo envolvente e informativo do jogo descrito abaixo, em português, através do conteúdo dos YAML fornecidos:
- Lineups:
{{.Lineups}}
  contêm informações sobre as escalações dos times.
- Match Info:
{{.MatchInfo}}
  contêm informações gerais da partida como data, estádio, times, placar, nome da competição.
- Events:
{{.Events}}
  contêm informações sobre os eventos da partida: passes, faltas cometidas, faltas sofridas, interceptações, recuperação de bola, dribles e suas localizações.
- Player Stats:
{{.PlayerStats}}
  contêm as estatísticas individuais dos jogadores e, junto com os eventos, dão a visão geral da partida.
Quando uma seção contiver apenas um campo "error", considere que esses dados não estão disponíveis.
Utilize apenas as informações fornecidas, sem fazer suposições ou preencher lacunas, como por exemplo adivinhar a ordem dos eventos da partida.
O objetivo é criar um texto cativante e acessível, destacando os principais acontecimentos e aspectos interessantes da partida.
O resumo deve ter no máximo 250 palavras e ser escrito como um comentarista esportivo.
Mencione a data da partida explicitamente, sem utilizar termos como 'hoje'.
Não use termos como "de acordo com os dados que me foram fornecidos", ou algo do tipo.
Focalize os momentos-chave do jogo, não entre em detalhes excessivos sobre cada jogador.
`))

var playerProfileTemplate = template.Must(template.New("player_profile").Parse(`Elabore um resumo envolvente e informativo do jogador selecionado, em português, através do conteúdo dos YAML fornecidos:
- Player Stats:
{{.PlayerStats}}
  contêm as estatísticas do jogador na partida: passes completos, tentativas de passes, chutes, chutes no alvo, gols, assistências, faltas cometidas, faltas sofridas, contestações de bola, interceptações, dribles, recuperações de bola, bloqueios, cartões, paralisações por lesão e perdas de controle.
- Events:
{{.Events}}
  contêm informações sobre os eventos gerais da partida, envolvendo todos os jogadores.
Quando uma seção contiver apenas um campo "error", considere que esses dados não estão disponíveis.
Com a combinação das estatísticas do jogador e dos eventos da partida, trace o perfil do jogador na partida.
Utilize apenas as informações fornecidas, sem fazer suposições ou preencher lacunas, como por exemplo adivinhar a ordem dos eventos da partida.
Não use termos como "de acordo com os dados que me foram fornecidos", ou algo do tipo.
O objetivo é criar um texto cativante e acessível, destacando os principais acontecimentos e aspectos interessantes do jogador na partida.
O resumo deve ter no máximo 250 palavras e ser escrito como um comentarista esportivo.
`))

type matchSummaryData struct {
	Lineups     string
	MatchInfo   string
	Events      string
	PlayerStats string
}

type playerProfileData struct {
	PlayerStats string
	Events      string
}

// playerProfileStats labels a player's counters in Portuguese for the prompt
type playerProfileStats struct {
	Player          string `yaml:"Jogador"`
	Team            string `yaml:"Time,omitempty"`
	PassesCompleted int    `yaml:"Passes Completos"`
	PassesAttempted int    `yaml:"Tentativas de Passes"`
	Shots           int    `yaml:"Chutes"`
	ShotsOnTarget   int    `yaml:"Chutes no Alvo"`
	GoalsNonPenalty int    `yaml:"Gols (exceto pênaltis)"`
	GoalsPenalty    int    `yaml:"Gols de Pênalti"`
	Assists         int    `yaml:"Assistências"`
	FoulsCommitted  int    `yaml:"Faltas Cometidas"`
	FoulsWon        int    `yaml:"Faltas Sofridas"`
	Tackles         int    `yaml:"Contestações de Bola"`
	Interceptions   int    `yaml:"Interceptações"`
	DribblesDone    int    `yaml:"Dribles Completados"`
	DribblesTried   int    `yaml:"Tentativas de Dribles"`
	BallRecoveries  int    `yaml:"Recuperações de Bola"`
	Blocks          int    `yaml:"Bloqueios"`
	InjuryStoppages int    `yaml:"Paralisações por Lesão"`
	Miscontrols     int    `yaml:"Perda de Controle"`
	YellowCards     int    `yaml:"Cartões Amarelos"`
	RedCards        int    `yaml:"Cartões Vermelhos"`
	MinutesPlayed   int    `yaml:"Minutos Jogados"`
}

func newPlayerProfileStats(rec match.PlayerStatsRecord) playerProfileStats {
	s := rec.Statistics
	return playerProfileStats{
		Player:          rec.Player,
		Team:            rec.Team,
		PassesCompleted: s.PassesCompleted,
		PassesAttempted: s.PassesAttempted,
		Shots:           s.Shots,
		ShotsOnTarget:   s.ShotsOnTarget,
		GoalsNonPenalty: s.GoalsNonPenalty,
		GoalsPenalty:    s.GoalsPenalty,
		Assists:         s.Assists,
		FoulsCommitted:  s.FoulsCommitted,
		FoulsWon:        s.FoulsWon,
		Tackles:         s.Tackles,
		Interceptions:   s.Interceptions,
		DribblesDone:    s.DribblesComplete,
		DribblesTried:   s.DribblesAttempt,
		BallRecoveries:  s.BallRecoveries,
		Blocks:          s.Blocks,
		InjuryStoppages: s.InjuryStoppages,
		Miscontrols:     s.Miscontrols,
		YellowCards:     s.YellowCards,
		RedCards:        s.RedCards,
		MinutesPlayed:   s.MinutesPlayed,
	}
}

// toYAML renders v as a YAML document. Non-ASCII text is kept as is.
func toYAML(v any) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("serializing to yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("serializing to yaml: %w", err)
	}
	return sb.String(), nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
