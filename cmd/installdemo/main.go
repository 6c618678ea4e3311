// SPDX-License-Identifier: Apache-2.0

// Command installdemo runs a complete, in-process Install Protocol exchange
// between two parties: it seeds a channel via the setup stand-in, starts a
// responder orchestrator listening on a loopback bus, and drives the
// initiator side of an install to completion.
package main

import (
	"context"
	"crypto/rand"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"perun.network/install-protocol/chain"
	"perun.network/install-protocol/channel"
	"perun.network/install-protocol/config"
	"perun.network/install-protocol/host"
	"perun.network/install-protocol/orchestrator"
	"perun.network/install-protocol/setup"
	"perun.network/install-protocol/wallet"
	"perun.network/install-protocol/wire"
)

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("app", "installdemo").Logger()
	log.Logger = logger
	return logger
}

const configPath = "cmd/installdemo/config.toml"

func main() {
	logger := initLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading config")
	}

	ksA, err := wallet.NewRAMKeystore(rand.Reader)
	if err != nil {
		logger.Fatal().Err(err).Msg("creating initiator keystore")
	}
	ksB, err := wallet.NewRAMKeystore(rand.Reader)
	if err != nil {
		logger.Fatal().Err(err).Msg("creating responder keystore")
	}
	accA := ksA.NewAccount()
	ksA.IncrementUsage(accA.Address())
	accB := ksB.NewAccount()
	ksB.IncrementUsage(accB.Address())

	logger.Info().Str("initiator", accA.Address().String()).Str("responder", accB.Address().String()).Msg("accounts ready")

	bus := wire.NewLocalBus()
	bus.Register(accA.Address())
	bus.Register(accB.Address())

	conn := chain.NewInMemoryConnector()
	var multisig wallet.Address
	multisig[wallet.AddressLen-1] = 0xAA
	owners := [2]channel.ChannelOwner{channel.ChannelOwner(accA.Address()), channel.ChannelOwner(accB.Address())}
	var ethAsset wallet.Address
	ethAsset[wallet.AddressLen-1] = 0x01

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SendAndWaitTimeout.Duration)
	defer cancel()

	preChannel, err := setup.NewPreProtocolStateChannel(ctx, conn, multisig, owners, []setup.Deposit{
		{Owner: accA.Address(), Asset: ethAsset, Amount: big.NewInt(100)},
		{Owner: accB.Address(), Asset: ethAsset, Amount: big.NewInt(100)},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("setup failed")
	}
	logger.Info().Uint64("version", preChannel.FreeBalance.VersionNumber).Msg("pre-protocol channel seeded")

	storeA, storeB := host.NewStore(), host.NewStore()
	validator := host.NewAllowListValidator(cfg.AllowedAppAddresses...)
	orchA := orchestrator.New(accA.Address(), host.NewSigner(ksA), validator, storeA, bus, conn, cfg.ChainID)
	orchB := orchestrator.New(accB.Address(), host.NewSigner(ksB), validator, storeB, bus, conn, cfg.ChainID)
	orchA.RegisterChannel(preChannel)
	orchB.RegisterChannel(preChannel)

	go func() {
		if err := orchB.Serve(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("responder orchestrator stopped")
		}
	}()

	var appDefinition wallet.Address
	appDefinition[wallet.AddressLen-1] = 0x42
	proposal := channel.AppInstance{
		IdentityHash:            channel.IdentityHash{0x99},
		InitiatorIdentifier:     channel.AppParty(accA.Address()),
		ResponderIdentifier:     channel.AppParty(accB.Address()),
		AppInterface:            channel.AppInterface{Address: appDefinition},
		DefaultTimeout:          100,
		OutcomeType:             channel.SingleAssetTwoPartyCoinTransfer,
		InitiatorDeposit:        big.NewInt(10),
		ResponderDeposit:        big.NewInt(20),
		InitiatorDepositAssetID: ethAsset,
		ResponderDepositAssetID: ethAsset,
	}

	post, err := orchA.ProposeAndInstall(ctx, accB.Address(), proposal)
	if err != nil {
		logger.Fatal().Err(err).Msg("install failed")
	}

	logger.Info().
		Uint64("version", post.FreeBalance.VersionNumber).
		Str("initiator_balance", post.FreeBalance.State.Get(ethAsset, accA.Address()).String()).
		Str("responder_balance", post.FreeBalance.State.Get(ethAsset, accB.Address()).String()).
		Msg("install complete")
}
